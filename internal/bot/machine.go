package bot

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aldosari/medbooking_bot/internal/apperror"
)

// handleText drives one chat's booking dialogue. The caller must hold the
// chat's session lock.
func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)

	if text == keywordStart {
		b.startBooking(ctx, chatID)
		return
	}
	if text == cmdStart || text == cmdHelp {
		b.sendMarkdown(chatID, msgHelp)
		return
	}

	sess := b.sessions.Get(chatID)
	if sess == nil {
		b.send(chatID, msgIdle)
		return
	}

	switch sess.Step {
	case StepSelectingCenter:
		b.handleCenterChoice(ctx, chatID, sess, text)
	case StepSelectingClinic:
		b.handleClinicChoice(ctx, chatID, sess, text)
	case StepSelectingTime:
		b.handleSlotChoice(ctx, chatID, sess, text)
	case StepCollectingName:
		b.handlePatientName(chatID, sess, text)
	case StepCollectingAge:
		b.handlePatientAge(chatID, sess, text)
	case StepConfirming:
		b.handleConfirmation(ctx, chatID, sess, text)
	default:
		b.sessions.Delete(chatID)
		b.send(chatID, msgIdle)
	}
}

// startBooking fetches the centers and opens a fresh session. On fetch
// failure no session is created.
func (b *Bot) startBooking(ctx context.Context, chatID int64) {
	b.send(chatID, msgWelcome)

	centers, err := b.catalog.ListCenters(ctx)
	if err != nil {
		b.sessions.Delete(chatID)
		b.send(chatID, fetchErrorMessage(err, msgErrLoadCenters))
		return
	}
	if len(centers) == 0 {
		b.sessions.Delete(chatID)
		b.send(chatID, msgNoCenters)
		return
	}

	b.sessions.Put(chatID, &Session{
		Step:    StepSelectingCenter,
		Centers: centers,
	})
	b.send(chatID, formatCentersList(centers))
}

func (b *Bot) handleCenterChoice(ctx context.Context, chatID int64, sess *Session, text string) {
	idx, ok := parseMenuChoice(text, len(sess.Centers))
	if !ok {
		b.send(chatID, msgBadCenterIndex)
		return
	}
	center := sess.Centers[idx-1]

	clinics, err := b.catalog.ListClinics(ctx, center)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			// The center vanished between menus; start over with a
			// fresh list.
			b.startBooking(ctx, chatID)
			return
		}
		b.send(chatID, fetchErrorMessage(err, msgErrLoadClinics))
		return
	}
	if len(clinics) == 0 {
		b.send(chatID, formatNoClinics(center))
		b.startBooking(ctx, chatID)
		return
	}

	sess.Step = StepSelectingClinic
	sess.Center = center
	sess.Clinics = clinics
	b.sessions.Put(chatID, sess)
	b.send(chatID, formatClinicsList(center, clinics))
}

func (b *Bot) handleClinicChoice(ctx context.Context, chatID int64, sess *Session, text string) {
	idx, ok := parseMenuChoice(text, len(sess.Clinics))
	if !ok {
		b.send(chatID, msgBadClinicIndex)
		return
	}
	sess.Clinic = sess.Clinics[idx-1]

	b.showSlots(ctx, chatID, sess)
}

// showSlots fetches tomorrow's availability for the session's clinic and
// moves the chat to time selection; with nothing available the user returns
// to the clinic list, the immediately preceding step.
func (b *Bot) showSlots(ctx context.Context, chatID int64, sess *Session) {
	slots, err := b.catalog.ListSlotsForTomorrow(ctx, sess.Center, sess.Clinic)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			b.startBooking(ctx, chatID)
			return
		}
		b.send(chatID, fetchErrorMessage(err, msgErrLoadSlots))
		return
	}
	if len(slots) == 0 {
		b.send(chatID, msgNoSlots)
		sess.Step = StepSelectingClinic
		b.sessions.Put(chatID, sess)
		b.send(chatID, formatClinicsList(sess.Center, sess.Clinics))
		return
	}

	sess.Step = StepSelectingTime
	sess.Slots = slots
	b.sessions.Put(chatID, sess)
	b.send(chatID, formatSlotsList(sess.Clinic, slots))
}

func (b *Bot) handleSlotChoice(ctx context.Context, chatID int64, sess *Session, text string) {
	idx, ok := parseMenuChoice(text, len(sess.Slots))
	if !ok {
		b.send(chatID, msgBadSlotIndex)
		return
	}
	slot := sess.Slots[idx-1]

	sess.Step = StepCollectingName
	sess.SlotID = slot.ID
	sess.Date = slot.Date
	sess.SlotTime = slot.Time
	b.sessions.Put(chatID, sess)
	b.send(chatID, msgAskName)
}

func (b *Bot) handlePatientName(chatID int64, sess *Session, text string) {
	if utf8.RuneCountInString(text) < 2 {
		b.send(chatID, msgBadName)
		return
	}

	sess.Step = StepCollectingAge
	sess.PatientName = text
	b.sessions.Put(chatID, sess)
	b.send(chatID, msgAskAge)
}

func (b *Bot) handlePatientAge(chatID int64, sess *Session, text string) {
	age, err := strconv.Atoi(text)
	if err != nil || age < 1 || age > 120 {
		b.send(chatID, msgBadAge)
		return
	}

	sess.Step = StepConfirming
	sess.PatientAge = age
	b.sessions.Put(chatID, sess)
	b.sendMarkdown(chatID, formatBookingSummary(sess))
}

func (b *Bot) handleConfirmation(ctx context.Context, chatID int64, sess *Session, text string) {
	switch {
	case isConfirmToken(text):
		b.confirmBooking(ctx, chatID, sess)
	case isCancelToken(text):
		b.sessions.Delete(chatID)
		b.send(chatID, msgCancelled)
	default:
		b.send(chatID, msgConfirmHint)
	}
}

func (b *Bot) confirmBooking(ctx context.Context, chatID int64, sess *Session) {
	_, err := b.booker.Book(ctx, sess.SlotID, chatID, sess.PatientName, sess.PatientAge)
	if err != nil {
		if apperror.IsKind(err, apperror.KindSlotTaken) {
			// Lost the race for the slot: back to time selection with
			// a fresh list.
			b.send(chatID, msgSlotTaken)
			b.showSlots(ctx, chatID, sess)
			return
		}
		// Mid-confirmation failures clear the session so the chat is
		// never stuck in a confirmed-looking state.
		b.sessions.Delete(chatID)
		b.send(chatID, fetchErrorMessage(err, msgErrBooking))
		return
	}

	b.sessions.Delete(chatID)
	b.sendMarkdown(chatID, formatBookingSuccess(sess))
}

// parseMenuChoice validates a 1-based numeric choice against the list most
// recently shown for the step.
func parseMenuChoice(text string, max int) (int, bool) {
	idx, err := strconv.Atoi(text)
	if err != nil || idx < 1 || idx > max {
		return 0, false
	}
	return idx, true
}

// fetchErrorMessage maps a classified error onto the user-facing template,
// falling back to the step's generic failure text.
func fetchErrorMessage(err error, generic string) string {
	switch apperror.KindOf(err) {
	case apperror.KindAccessDenied:
		return msgErrAccessDenied
	case apperror.KindTimeout:
		return msgErrTimeout
	default:
		return generic
	}
}
