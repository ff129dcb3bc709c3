package main

import (
	"strings"
	"testing"
	"time"
)

func TestNotificationCommand(t *testing.T) {
	name, args := notificationCommand("darwin", `say "hi"`)
	if name != "osascript" || len(args) != 2 || args[0] != "-e" {
		t.Fatalf("unexpected darwin command %s %v", name, args)
	}
	if !strings.Contains(args[1], `display notification "say 'hi'"`) {
		t.Errorf("unexpected script %q", args[1])
	}

	name, args = notificationCommand("linux", "body")
	if name != "notify-send" || len(args) != 2 || args[0] != title || args[1] != "body" {
		t.Errorf("unexpected linux command %s %v", name, args)
	}
}

func TestMessage(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 5, 7, 0, time.Local)
	got := message(Request{ConfirmedAt: at, Frames: 3})
	if got != "Hands raised at 09:05:07 (3 frames)" {
		t.Errorf("message() = %q", got)
	}
}
