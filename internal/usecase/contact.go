package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/sentrycore/site/internal/domain"
)

const (
	MessageMissingContact  = "Please provide your name and email."
	MessageSubmitFailed    = "Submission failed. Please try again."
	MessageSubmitSucceeded = "Request submitted successfully!"
)

// ContactInput is what the visitor typed into the contact form.
type ContactInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	CompanyName     string `json:"companyName"`
	RequiredService string `json:"requiredService"`
	Details         string `json:"details"`
}

// SubmitError is returned when the store rejected a valid submission.
// Its message is the generic one shown to the visitor.
type SubmitError struct {
	cause error
}

func (e *SubmitError) Error() string {
	return MessageSubmitFailed
}

func (e *SubmitError) Unwrap() error {
	return e.cause
}

type ContactUsecase struct {
	contacts  ContactRepository
	solutions SolutionRepository
	now       func() time.Time
}

func NewContactUsecase(contacts ContactRepository, solutions SolutionRepository) *ContactUsecase {
	return &ContactUsecase{
		contacts:  contacts,
		solutions: solutions,
		now:       time.Now,
	}
}

// Submit validates the form and stores it. Nothing is written when the first
// name or the email is missing.
func (uc *ContactUsecase) Submit(ctx context.Context, input ContactInput) error {
	ctx, span := tracer.Start(ctx, "Contact.Usecase.Submit")
	defer span.End()

	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.Email) == "" {
		return domain.ValidationError{Message: MessageMissingContact}
	}

	lead := domain.Lead{
		ID:              ulid.Make().String(),
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		CompanyName:     input.CompanyName,
		RequiredService: input.RequiredService,
		Details:         input.Details,
		CreatedAt:       uc.now().UTC(),
	}

	err := uc.contacts.Insert(ctx, lead)
	if err != nil {
		span.RecordError(err)
		return &SubmitError{cause: errors.Wrap(err, "failed to insert contact")}
	}
	return nil
}

// ServiceOptions lists the choices of the form's service selector.
func (uc *ContactUsecase) ServiceOptions(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Contact.Usecase.ServiceOptions")
	defer span.End()

	titles, err := uc.solutions.ListTitles(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to list solutions")
	}
	return titles, nil
}
