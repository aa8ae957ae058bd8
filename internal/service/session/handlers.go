package session

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/domain/session"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/directory"
)

// moodKeywordThreshold is the number of distinct crisis phrases in a mood
// note that counts as immediate risk.
const moodKeywordThreshold = 2

// PlanStep is one step of the fallback safety plan.
type PlanStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var safetyPlan = []PlanStep{
	{1, "Recognize warning signs", "Notice the thoughts, moods and situations that come before a crisis."},
	{2, "Use coping strategies", "Do something that has helped before: breathe slowly, move, change rooms."},
	{3, "Reach out to people", "Go somewhere with other people or contact someone you trust."},
	{4, "Contact a crisis line", "Call or text 988 any time, day or night."},
	{5, "Make the environment safe", "Put distance between yourself and anything you could use to hurt yourself."},
}

// opRequest is what a handler sees. The session is read-only.
type opRequest struct {
	session *session.CrisisSession
	payload json.RawMessage
	now     time.Time
}

// opOutcome is a handler's answer. Metadata goes into the audit entry.
type opOutcome struct {
	result        map[string]interface{}
	immediateRisk bool
	metadata      map[string]interface{}
}

type handler func(ctx context.Context, req opRequest) (opOutcome, error)

type handlers struct {
	directory Directory
	validate  *validator.Validate
}

func (h *handlers) table() map[session.Operation]handler {
	return map[session.Operation]handler{
		session.OpViewCrisisPlan:    h.viewCrisisPlan,
		session.OpEmergencyContacts: h.emergencyContacts,
		session.OpCrisisButton:      h.crisisButton,
		session.OpEmergencyMoodLog:  h.emergencyMoodLog,
		session.OpSafetyAssessment:  h.safetyAssessment,
	}
}

func (h *handlers) hotlines() []directory.Hotline {
	if h.directory != nil {
		if hotlines := h.directory.Hotlines(); len(hotlines) > 0 {
			return hotlines
		}
	}
	return directory.FailOpenResources()
}

func (h *handlers) contacts(ctx context.Context, userID string) []directory.Contact {
	if h.directory == nil || userID == "" {
		return []directory.Contact{}
	}
	if contacts := h.directory.Contacts(ctx, userID); contacts != nil {
		return contacts
	}
	return []directory.Contact{}
}

func (h *handlers) viewCrisisPlan(context.Context, opRequest) (opOutcome, error) {
	steps := make([]PlanStep, len(safetyPlan))
	copy(steps, safetyPlan)
	return opOutcome{result: map[string]interface{}{
		"steps":    steps,
		"hotlines": h.hotlines(),
	}}, nil
}

func (h *handlers) emergencyContacts(ctx context.Context, req opRequest) (opOutcome, error) {
	contacts := h.contacts(ctx, req.session.UserID)
	return opOutcome{
		result: map[string]interface{}{
			"contacts": contacts,
			"hotlines": h.hotlines(),
		},
		metadata: map[string]interface{}{"contacts_returned": len(contacts)},
	}, nil
}

func (h *handlers) crisisButton(ctx context.Context, req opRequest) (opOutcome, error) {
	hotlines := h.hotlines()
	result := map[string]interface{}{
		"primary":   hotlines[0],
		"hotlines":  hotlines,
		"contacts":  h.contacts(ctx, req.session.UserID),
		"protocols": EmergencyProtocols(req.session.Severity),
	}
	return opOutcome{result: result, metadata: map[string]interface{}{"primary": hotlines[0].Number}}, nil
}

func (h *handlers) emergencyMoodLog(_ context.Context, req opRequest) (opOutcome, error) {
	var entry MoodEntry
	if err := h.decode(req.payload, &entry); err != nil {
		return opOutcome{}, err
	}

	matches := crisis.MatchKeywords(entry.Note)
	risk := len(matches) >= moodKeywordThreshold
	result := map[string]interface{}{
		"logged":    true,
		"logged_at": req.now,
		"entry":     req.session.ExecutionCount(session.OpEmergencyMoodLog) + 1,
	}
	if risk {
		result["recommended_actions"] = []string{crisis.ActionOfferCrisisLine, crisis.ActionShowCrisisResources}
	}
	return opOutcome{
		result:        result,
		immediateRisk: risk,
		metadata: map[string]interface{}{
			"rating":           entry.Rating,
			"keyword_matches":  len(matches),
			"note_length":      len(entry.Note),
			"immediate_risk":   risk,
			"matched_keywords": matches,
		},
	}, nil
}

func (h *handlers) safetyAssessment(_ context.Context, req opRequest) (opOutcome, error) {
	var answers SafetyAnswers
	if err := h.decode(req.payload, &answers); err != nil {
		return opOutcome{}, err
	}

	risk := answers.ImmediateRisk()
	actions := []string{crisis.ActionStartSafetyPlan}
	switch {
	case risk:
		actions = []string{crisis.ActionOfferCrisisLine, crisis.ActionNotifyEmergencyContact, crisis.ActionShowCrisisResources}
	case answers.HasThoughts || answers.HasPlan:
		actions = append(actions, crisis.ActionShowCrisisResources, crisis.ActionScheduleFollowUp)
	}

	return opOutcome{
		result: map[string]interface{}{
			"immediate_risk":      risk,
			"recommended_actions": actions,
		},
		immediateRisk: risk,
		metadata: map[string]interface{}{
			"has_thoughts":   answers.HasThoughts,
			"has_plan":       answers.HasPlan,
			"has_means":      answers.HasMeans,
			"feels_safe":     answers.FeelsSafe,
			"immediate_risk": risk,
		},
	}, nil
}

// decode rejects a missing payload, unknown shapes and failed validation
// with INVALID_REQUEST.
func (h *handlers) decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return errors.NewValidationError(errors.CodeInvalidRequest, "payload is required")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.NewValidationError(errors.CodeInvalidRequest, "payload is malformed").WithCause(err)
	}
	if err := h.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError flattens validator errors into field → tag details.
func validationError(err error) *errors.AppError {
	appErr := errors.NewValidationError(errors.CodeInvalidRequest, "request failed validation")
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErr.WithCause(err)
	}
	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return appErr.WithDetails(details)
}

