// SPDX-License-Identifier: Apache-2.0

// Package service orchestrates the crypto core against the transport
// adapter and the local cache. Services hold no key material of their
// own; everything sensitive lives in the account and is unwrapped per
// operation.
package service

import (
	"context"
	"fmt"

	"github.com/kodumbeats/etebase-go/internal/account"
	"github.com/kodumbeats/etebase-go/internal/adapter"
	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/internal/logger"
)

// AccountService drives signup, login, password change, and logout.
type AccountService struct {
	adapter adapter.ServerAdapter
	log     *logger.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(serverAdapter adapter.ServerAdapter, log *logger.Logger) *AccountService {
	return &AccountService{adapter: serverAdapter, log: log}
}

// Signup prepares the account key material offline and publishes the
// resulting record.
func (s *AccountService) Signup(ctx context.Context, username, email, password, serverURL string) (*account.Account, error) {
	acc, err := account.Signup(username, email, password, serverURL)
	if err != nil {
		return nil, fmt.Errorf("prepare signup: %w", err)
	}

	resp, err := s.adapter.Signup(ctx, acc.User)
	if err != nil {
		acc.Logout()
		return nil, fmt.Errorf("signup on server: %w", err)
	}
	acc.AuthToken = resp.Token

	s.log.Info().Str("username", username).Msg("account created")
	return acc, nil
}

// Login runs the challenge-response exchange and unlocks the account.
func (s *AccountService) Login(ctx context.Context, username, password, serverURL, host string) (*account.Account, error) {
	ch, err := s.adapter.LoginChallenge(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetch login challenge: %w", err)
	}

	req, err := account.SignChallenge(username, password, ch, host, account.ActionLogin)
	if err != nil {
		return nil, fmt.Errorf("sign login challenge: %w", err)
	}

	resp, err := s.adapter.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login on server: %w", err)
	}

	acc, err := account.Login(resp.User, password, resp.Token, serverURL)
	if err != nil {
		return nil, fmt.Errorf("unlock account: %w", err)
	}

	s.log.Info().Str("username", username).Msg("logged in")
	return acc, nil
}

// ChangePassword rolls the account keys over to newPassword and ships
// the updated record. It returns the previous main crypto manager so
// the caller can re-wrap collection keys that are still bound to the
// old main cipher key; the caller owns it and must Wipe it when done.
func (s *AccountService) ChangePassword(ctx context.Context, acc *account.Account, newPassword string) (*crypto.CryptoManager, error) {
	oldMain, err := acc.MainCryptoManager()
	if err != nil {
		return nil, err
	}

	req, err := acc.ChangePassword(newPassword)
	if err != nil {
		oldMain.Wipe()
		return nil, fmt.Errorf("derive new password keys: %w", err)
	}
	if err := s.adapter.ChangePassword(ctx, req); err != nil {
		oldMain.Wipe()
		return nil, fmt.Errorf("change password on server: %w", err)
	}

	s.log.Info().Str("username", acc.User.Username).Msg("password changed")
	return oldMain, nil
}

// Logout invalidates the session server-side and zeroizes the local
// key material regardless of the server's answer.
func (s *AccountService) Logout(ctx context.Context, acc *account.Account) error {
	err := s.adapter.Logout(ctx)
	acc.Logout()
	if err != nil {
		return fmt.Errorf("logout on server: %w", err)
	}
	return nil
}
