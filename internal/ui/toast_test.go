package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToastExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	toast := &Toast{now: func() time.Time { return now }}
	assert.Equal(t, "", toast.Message())

	toast.Show("Could not move a.txt", ToastError)
	assert.Equal(t, "Could not move a.txt", toast.Message())

	now = now.Add(toastDuration - time.Millisecond)
	assert.Equal(t, "Could not move a.txt", toast.Message())

	now = now.Add(2 * time.Millisecond)
	assert.Equal(t, "", toast.Message())

	toast.Show("again", ToastInfo)
	toast.Hide()
	assert.Equal(t, "", toast.Message())
}
