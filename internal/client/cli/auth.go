package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/nchiang/moodiary/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning. Any I/O or service error is returned
// unchanged.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.store.Register(ctx, email, string(password)); err != nil {
		a.logger.Error(ctx, "registration failed", "error", err)
		return err
	}

	fmt.Println("Success! Now log in.")
	return nil
}

// Login prompts the user for credentials and authenticates against the
// backend. On success it installs the user identity, which also unblocks any
// deferred pending-store drain, and kicks an immediate sync pass.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	userID, err := a.store.Login(ctx, email, string(password))
	if err != nil {
		a.logger.Error(ctx, "login failed", "error", err)
		return err
	}

	a.mu.Lock()
	a.userID = userID
	a.userEmail = email
	a.mu.Unlock()

	fmt.Println("Logged in.")
	go a.monitor.HandleOnline(ctx)
	return nil
}

// Logout drops the session identity, tokens and the cached entry list.
func (a *App) Logout(ctx context.Context) error {
	a.store.Logout()
	a.mu.Lock()
	a.userID = ""
	a.userEmail = ""
	a.entries = nil
	a.mu.Unlock()
	fmt.Println("Logged out.")
	return nil
}
