package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

type fakeMemberAPI struct {
	member telego.ChatMember
	err    error
}

func (f *fakeMemberAPI) GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error) {
	return f.member, f.err
}

func TestIsAdminOwner(t *testing.T) {
	auth := NewAdminAuthorizer(&fakeMemberAPI{member: &telego.ChatMemberOwner{}})
	assert.Equal(t, VerdictAdmin, auth.IsAdmin(context.Background(), -100, 1))
}

func TestIsAdminAdministrator(t *testing.T) {
	auth := NewAdminAuthorizer(&fakeMemberAPI{member: &telego.ChatMemberAdministrator{}})
	assert.Equal(t, VerdictAdmin, auth.IsAdmin(context.Background(), -100, 1))
}

func TestIsAdminRegularMember(t *testing.T) {
	auth := NewAdminAuthorizer(&fakeMemberAPI{member: &telego.ChatMemberMember{}})
	assert.Equal(t, VerdictNotAdmin, auth.IsAdmin(context.Background(), -100, 1))
}

func TestIsAdminQueryFailure(t *testing.T) {
	auth := NewAdminAuthorizer(&fakeMemberAPI{err: errors.New("timeout")})
	assert.Equal(t, VerdictUnknown, auth.IsAdmin(context.Background(), -100, 1))
}
