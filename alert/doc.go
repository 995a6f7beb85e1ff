// Package alert bridges accepted notifications to an OS-level alert surface.
//
// The Bridge maps notification priority onto presentation behavior (urgent
// alerts require explicit dismissal, everything else auto-dismisses) and
// wires alert activation back into the notification store: activating an
// alert foregrounds the host application, dismisses the alert and marks the
// originating notification as read.
//
// The platform surface is injected as a core.AlertPresenter capability, so
// the same bridge logic runs against any notification center or a test fake.
// Permission is requested once at startup off the hot path; a denied
// permission silences alerts without affecting store updates.
package alert
