package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcceptsSubmissions(t *testing.T) {
	closing := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := Announcement{Status: AnnouncementOpen, ClosingAt: closing}

	require.True(t, a.AcceptsSubmissions(closing.Add(-time.Second)))
	// the closing instant itself is outside the window
	require.False(t, a.AcceptsSubmissions(closing))
	require.False(t, a.AcceptsSubmissions(closing.Add(time.Second)))

	a.Status = AnnouncementClosed
	require.False(t, a.AcceptsSubmissions(closing.Add(-time.Hour)))
}
