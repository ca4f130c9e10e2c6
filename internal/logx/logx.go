// Package logx annotates context-bound loggers with registry identifiers.
package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/schema"
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithUser annotates the logger with the user id if present.
func WithUser(ctx context.Context, userID schema.UserID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if userID != "" {
		log = log.With("user", userID)
	}
	return log
}

// WithUserTab annotates the logger with user and tab identifiers.
func WithUserTab(ctx context.Context, userID schema.UserID, tabID schema.TabID) pslog.Logger {
	log := WithUser(ctx, userID)
	if tabID != "" {
		log = log.With("tab", tabID)
	}
	return log
}

// WithSession annotates the logger with the originating UI session.
func WithSession(log pslog.Logger, session schema.SessionID) pslog.Logger {
	if session != "" {
		log = log.With("session", session)
	}
	return log
}
