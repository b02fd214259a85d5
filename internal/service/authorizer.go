package service

import (
	"context"

	"github.com/mymmrac/telego"

	"tg-autodelete/internal/logger"
)

// Verdict is the outcome of an admin privilege check.
type Verdict int

const (
	// VerdictUnknown means the membership query failed; the caller must
	// reject the mutation with a retryable error, never permit it.
	VerdictUnknown Verdict = iota
	VerdictAdmin
	VerdictNotAdmin
)

// ChatMemberAPI is the membership query surface, satisfied by *telego.Bot.
type ChatMemberAPI interface {
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
}

// AdminAuthorizer checks whether a user holds elevated privilege in a group.
// Results are never cached: privilege can change between calls and is
// re-checked on every mutation attempt.
type AdminAuthorizer struct {
	api ChatMemberAPI
}

func NewAdminAuthorizer(api ChatMemberAPI) *AdminAuthorizer {
	return &AdminAuthorizer{api: api}
}

// IsAdmin reports whether the user is the group's creator or an
// administrator. Transient query failures yield VerdictUnknown.
func (a *AdminAuthorizer) IsAdmin(ctx context.Context, groupID int64, userID int64) Verdict {
	member, err := a.api.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: groupID},
		UserID: userID,
	})
	if err != nil {
		logger.Warningf("Error getting chat member %d in group %d: %v", userID, groupID, err)
		return VerdictUnknown
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator:
		return VerdictAdmin
	}
	return VerdictNotAdmin
}
