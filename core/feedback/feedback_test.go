package feedback_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slps/canteen/core/feedback"
	"github.com/slps/canteen/core/sheet"
	emailsvc "github.com/slps/canteen/services/email"
	testutil "github.com/slps/canteen/tests"
)

func TestService_Submit(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()

	_, err := s.Feedback.Submit(ctx, feedback.NewFeedback{Name: "Ravi", Message: "  "})
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	assert.Len(t, vErrs, 4)
	assert.Empty(t, emailsvc.SentMessages)

	fb, err := s.Feedback.Submit(ctx, feedback.NewFeedback{
		Name:      " Ravi ",
		Email:     "ravi@slps.one",
		Message:   "More fruit please",
		ClassName: "5A",
		Rating:    "5",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", fb.Name)
	assert.NotEmpty(t, fb.Date)
	assert.NotEmpty(t, fb.Time)

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "New feedback from Ravi", msg.Subject)
	assert.Equal(t, s.Conf.StaffInboxEmail, msg.To[0].Address)

	tbl, err := s.Store.Get(ctx, sheet.Feedback)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "More fruit please", tbl.Value(0, "Message"))
}

func TestService_List(t *testing.T) {
	s := testutil.NewServices(t)
	s.Store.Seed(sheet.Feedback, sheet.Headers[sheet.Feedback],
		[]string{"Ravi", "ravi@slps.one", "Too salty", "2024-03-01", "10:00:00", "5A", "2"},
		[]string{"Old", "", "Undated", "", "", "", ""},
		[]string{"Meera", "meera@slps.one", "Loved the chai", "2024-03-02", "09:00:00", "5B", "5"},
	)

	list, err := s.Feedback.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Meera", list[0].Name)
	assert.Equal(t, "Ravi", list[1].Name)
	assert.Equal(t, "Old", list[2].Name)
	assert.Equal(t, "5", list[0].Rating)
}
