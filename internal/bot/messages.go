package bot

import (
	"fmt"
	"strings"

	"github.com/aldosari/medbooking_bot/internal/service"
)

// Conversation keywords. Matching is exact, no fuzzy handling.
const (
	keywordStart = "حجز"

	cmdStart = "/start"
	cmdHelp  = "/help"
)

var (
	confirmTokens = []string{"نعم", "تأكيد"}
	cancelTokens  = []string{"لا", "إلغاء"}
)

func isConfirmToken(text string) bool {
	return containsToken(confirmTokens, text)
}

func isCancelToken(text string) bool {
	return containsToken(cancelTokens, text)
}

func containsToken(tokens []string, text string) bool {
	for _, t := range tokens {
		if text == t {
			return true
		}
	}
	return false
}

const (
	msgIdle = "🩺 مرحباً بك في نظام حجز المواعيد الطبية!\n\nلبدء الحجز، يرجى إرسال كلمة \"حجز\"\nللحصول على تعليمات الاستخدام، أرسل \"/help\""

	msgWelcome = "🩺 مرحباً بك في نظام حجز المواعيد الطبية!\nيرجى اختيار المركز الصحي:"

	msgNoCenters = "❌ عذراً، لا توجد مراكز صحية متاحة حالياً."

	msgBadCenterIndex = "❌ الرجاء إدخال رقم صحيح من قائمة المراكز."
	msgBadClinicIndex = "❌ الرجاء إدخال رقم صحيح من قائمة العيادات."
	msgBadSlotIndex   = "❌ الرجاء إدخال رقم صحيح من قائمة الأوقات."

	msgNoSlots = "❌ عذراً، لا توجد مواعيد متاحة غداً في هذه العيادة."

	msgAskName = "📝 يرجى إدخال اسم المريض:"
	msgBadName = "❌ الرجاء إدخال اسم المريض بشكل صحيح (على الأقل حرفين)"
	msgAskAge  = "🎂 يرجى إدخال عمر المريض:"
	msgBadAge  = "❌ الرجاء إدخال عمر المريض بشكل صحيح (رقم بين 1 و 120)"

	msgConfirmHint = "الرجاء إرسال \"نعم\" أو \"تأكيد\" لتأكيد الحجز، أو \"لا\" أو \"إلغاء\" لإلغاء الحجز."

	msgCancelled = "❌ تم إلغاء الحجز. يمكنك بدء حجز جديد بإرسال كلمة \"حجز\"."

	msgSlotTaken = "❌ عذراً، تم حجز هذا الموعد للتو من قبل مستخدم آخر. يرجى اختيار موعد آخر."

	msgErrLoadCenters  = "❌ حدث خطأ أثناء تحميل المراكز الصحية. يرجى المحاولة مرة أخرى لاحقاً."
	msgErrLoadClinics  = "❌ حدث خطأ أثناء تحميل العيادات. يرجى المحاولة مرة أخرى لاحقاً."
	msgErrLoadSlots    = "❌ حدث خطأ أثناء تحميل المواعيد المتاحة. يرجى المحاولة مرة أخرى لاحقاً."
	msgErrBooking      = "❌ حدث خطأ أثناء تأكيد الحجز. يرجى المحاولة مرة أخرى لاحقاً."
	msgErrAccessDenied = "⚙️ خطأ في التكوين: لا توجد صلاحيات للوصول إلى قاعدة البيانات. يرجى التحقق من إعدادات الوصول."
	msgErrTimeout      = "⏳ استغرق الطلب وقتاً أطول من المتوقع. يرجى المحاولة مرة أخرى."

	msgHelp = `🩺 *نظام حجز المواعيد الطبية* 🩺

مرحباً بك في نظام الحجز الذكي للمواعيد الطبية! إليك كيفية استخدام البوت:

📋 *خطوات الحجز*:
1️⃣ أرسل كلمة "حجز" لبدء عملية الحجز
2️⃣ اختر رقم المركز الصحي من القائمة
3️⃣ اختر رقم العيادة من القائمة
4️⃣ اختر رقم الموعد المتاح
5️⃣ أدخل اسم المريض
6️⃣ أدخل عمر المريض
7️⃣ أكد الحجز بإرسال "نعم" أو ألغه بإرسال "لا"

🆘 *الأوامر المتاحة*:
• /start - عرض هذه التعليمات
• /help - عرض هذه التعليمات
• "حجز" - بدء عملية الحجز الجديدة

⚠️ *ملاحظات مهمة*:
• استخدم الأرقام فقط للاختيار (1, 2, 3, ...)
• جميع المواعيد تكون لليوم التالي
• اسم المريض يجب أن يكون حرفين على الأقل
• عمر المريض يجب أن يكون بين 1 و 120 سنة
• يمكنك إلغاء الحجز في أي وقت بإرسال "لا"`
)

func formatCentersList(centers []string) string {
	var b strings.Builder
	b.WriteString("📋 الرجاء اختيار رقم المركز من القائمة التالية:\n\n")
	for i, center := range centers {
		fmt.Fprintf(&b, "%d. 🏥 %s\n", i+1, center)
	}
	return b.String()
}

func formatNoClinics(center string) string {
	return fmt.Sprintf("❌ عذراً، لا توجد عيادات في مركز %s. يرجى اختيار مركز آخر.", center)
}

func formatClinicsList(center string, clinics []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 الرجاء اختيار رقم العيادة من قائمة عيادات مركز %s:\n\n", center)
	for i, clinic := range clinics {
		fmt.Fprintf(&b, "%d. ⚕️ %s\n", i+1, clinic)
	}
	return b.String()
}

func formatSlotsList(clinic string, slots []service.SlotOption) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 الرجاء اختيار رقم الوقت المتاح في عيادة %s غداً:\n\n", clinic)
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. ⏰ %s\n", i+1, slot.Time)
	}
	return b.String()
}

func formatBookingSummary(sess *Session) string {
	return fmt.Sprintf(
		"📋 *تأكيد الحجز*\n\n"+
			"🏢 المركز: %s\n"+
			"⚕️ العيادة: %s\n"+
			"📅 التاريخ: %s\n"+
			"⏰ الوقت: %s\n"+
			"👤 اسم المريض: %s\n"+
			"🎂 عمر المريض: %d سنوات\n\n"+
			"لتأكيد الحجز، أرسل \"نعم\" أو \"تأكيد\"\n"+
			"لإلغاء الحجز، أرسل \"لا\" أو \"إلغاء\"",
		sess.Center, sess.Clinic, sess.Date, sess.SlotTime, sess.PatientName, sess.PatientAge,
	)
}

func formatBookingSuccess(sess *Session) string {
	return fmt.Sprintf(
		"✅ *تم تأكيد حجزك بنجاح!*\n\n"+
			"📋 *تفاصيل الحجز:*\n"+
			"🏢 المركز: %s\n"+
			"⚕️ العيادة: %s\n"+
			"📅 التاريخ: %s\n"+
			"⏰ الوقت: %s\n"+
			"👤 المريض: %s\n"+
			"🎂 العمر: %d سنوات\n\n"+
			"سيتم إرسال تذكير قبل الموعد بساعتين.",
		sess.Center, sess.Clinic, sess.Date, sess.SlotTime, sess.PatientName, sess.PatientAge,
	)
}
