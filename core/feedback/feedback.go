package feedback

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/sheet"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

var (
	colName    = []string{"Name"}
	colEmail   = []string{"Email"}
	colMessage = []string{"Message", "feedback"}
	colDate    = []string{"Date"}
	colTime    = []string{"Time"}
	colClass   = []string{"className", "class"}
	colRating  = []string{"rating"}
)

type (
	// NewFeedback is what visitors submit; every field is required.
	NewFeedback struct {
		Name      string `json:"name" form:"name" validate:"notblank"`
		Email     string `json:"email" form:"email" validate:"notblank"`
		Message   string `json:"message" form:"message" validate:"notblank"`
		ClassName string `json:"className" form:"className" validate:"notblank"`
		Rating    string `json:"rating" form:"rating" validate:"notblank"`
	}

	Feedback struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Message   string `json:"message"`
		ClassName string `json:"className"`
		Rating    string `json:"rating"`
		Date      string `json:"date"`
		Time      string `json:"time"`
	}
)

func (nf *NewFeedback) clean() {
	nf.Name = core.CleanString(nf.Name)
	nf.Email = core.CleanString(nf.Email)
	nf.Message = core.CleanString(nf.Message)
	nf.ClassName = core.CleanString(nf.ClassName)
	nf.Rating = core.CleanString(nf.Rating)
}

type Service struct {
	conf     *core.Config
	store    sheet.Store
	mailSvc  core.EmailService
	validate *validator.Validate
	now      func() time.Time
}

func NewService(conf *core.Config, store sheet.Store, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{
		conf:     conf,
		store:    store,
		mailSvc:  mailSvc,
		validate: validate,
		now:      time.Now,
	}
}

// Submit stores the feedback and notifies the staff inbox.
func (svc *Service) Submit(ctx context.Context, nf NewFeedback) (Feedback, error) {
	nf.clean()
	if err := svc.validate.Struct(nf); err != nil {
		return Feedback{}, err
	}

	now := svc.now()
	fb := Feedback{
		Name:      nf.Name,
		Email:     nf.Email,
		Message:   nf.Message,
		ClassName: nf.ClassName,
		Rating:    nf.Rating,
		Date:      now.Format(dateLayout),
		Time:      now.Format(timeLayout),
	}

	t, err := sheet.Load(ctx, svc.store, sheet.Feedback)
	if err != nil {
		return Feedback{}, err
	}
	if len(t.Header) == 0 {
		if err = svc.store.Ensure(ctx, sheet.Feedback, sheet.Headers[sheet.Feedback]); err != nil {
			return Feedback{}, errors.Wrap(err, "creating feedback table")
		}
		t.Header = sheet.Headers[sheet.Feedback]
	}
	row := t.Row(map[string]string{
		t.HeaderFor(colName...):    fb.Name,
		t.HeaderFor(colEmail...):   fb.Email,
		t.HeaderFor(colMessage...): fb.Message,
		t.HeaderFor(colDate...):    fb.Date,
		t.HeaderFor(colTime...):    fb.Time,
		t.HeaderFor(colClass...):   fb.ClassName,
		t.HeaderFor(colRating...):  fb.Rating,
	})
	if err = svc.store.Append(ctx, sheet.Feedback, row); err != nil {
		return Feedback{}, errors.Wrap(err, "saving feedback")
	}

	if svc.conf.StaffInboxEmail != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: "Canteen staff", Address: svc.conf.StaffInboxEmail}},
			Subject:      "New feedback from " + fb.Name,
			TemplateName: "feedback_notification",
			TemplateData: fb,
		})
	}
	return fb, nil
}

// List returns every feedback, newest first. Undated entries come last.
func (svc *Service) List(ctx context.Context) ([]Feedback, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Feedback)
	if err != nil {
		return nil, err
	}
	list := make([]Feedback, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		list = append(list, Feedback{
			Name:      t.Value(i, colName...),
			Email:     t.Value(i, colEmail...),
			Message:   t.Value(i, colMessage...),
			ClassName: t.Value(i, colClass...),
			Rating:    t.Value(i, colRating...),
			Date:      t.Value(i, colDate...),
			Time:      t.Value(i, colTime...),
		})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].submittedAt().After(list[j].submittedAt()) })
	return list, nil
}

func (fb Feedback) submittedAt() time.Time {
	at, err := time.Parse(dateLayout+" "+timeLayout, fb.Date+" "+fb.Time)
	if err != nil {
		return time.Time{}
	}
	return at
}
