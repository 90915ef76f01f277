package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/internal/repository"
	"github.com/noah-isme/persona-chat-api/internal/store"
	"github.com/noah-isme/persona-chat-api/pkg/export"
	"github.com/noah-isme/persona-chat-api/pkg/storage"
)

const backupPrefix = "db-backup-"

type uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Key(name string) string
}

type auditPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// tool runs maintenance commands against one store file.
type tool struct {
	store      *store.Store
	backups    *storage.LocalStorage
	uploader   uploader
	audit      auditPruner
	logger     *zap.Logger
	out        io.Writer
	bcryptCost int
	now        func() time.Time
}

func (t *tool) migrate() error {
	applied, err := t.store.Migrate()
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintf(t.out, "store already at version %s\n", store.LatestVersion())
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(t.out, "applied migration %s\n", v)
	}
	return nil
}

func (t *tool) seed() error {
	created, err := t.store.Seed(store.DefaultSeedAccounts, t.bcryptCost)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Fprintln(t.out, "all demo accounts already exist")
		return nil
	}
	for _, email := range created {
		fmt.Fprintf(t.out, "created %s\n", email)
	}
	return nil
}

func (t *tool) reset(force bool) error {
	if !force {
		return errors.New("reset deletes every record; pass -force to confirm")
	}
	if _, err := t.backup(context.Background()); err != nil {
		return fmt.Errorf("backup before reset: %w", err)
	}
	if err := t.store.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(t.out, "store reset")
	return nil
}

func (t *tool) stats() error {
	enc := json.NewEncoder(t.out)
	enc.SetIndent("", "  ")
	return enc.Encode(t.store.Stats())
}

func (t *tool) clean(ctx context.Context) error {
	res, err := repository.NewTokenRepository(t.store).CleanupExpired(ctx, t.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "removed %d refresh, %d password reset, %d email verification tokens\n",
		res.RefreshTokens, res.PasswordResetTokens, res.EmailVerificationTokens)
	return nil
}

// backup writes the current document to the backup directory and, when
// configured, to S3. It returns the local file path.
func (t *tool) backup(ctx context.Context) (string, error) {
	data, err := t.store.Snapshot()
	if err != nil {
		return "", err
	}
	name := backupPrefix + t.now().UTC().Format("20060102T150405Z") + ".json"
	path, err := t.backups.Save(name, data)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(t.out, "backup written to %s\n", path)

	if t.uploader != nil {
		key, err := t.uploader.Upload(ctx, name, data)
		if err != nil {
			return path, err
		}
		fmt.Fprintf(t.out, "backup uploaded as %s\n", key)
	}
	return path, nil
}

func (t *tool) listBackups() error {
	objects, err := t.backups.List(backupPrefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		fmt.Fprintln(t.out, "no backups")
		return nil
	}
	for _, o := range objects {
		fmt.Fprintf(t.out, "%s\t%d\t%s\n", o.Name, o.Size, o.ModTime.UTC().Format(time.RFC3339))
	}
	return nil
}

func (t *tool) pruneBackups(olderThan time.Duration) error {
	if olderThan <= 0 {
		return errors.New("-older-than must be positive")
	}
	removed, err := t.backups.CleanupOlderThan(olderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "removed %d backups\n", len(removed))
	return nil
}

// restore replaces the store with source, which is either a file path or the
// name of a file in the backup directory. The current document is backed up first.
func (t *tool) restore(ctx context.Context, source string) error {
	if source == "" {
		return errors.New("restore needs a backup file")
	}
	raw, err := os.ReadFile(source)
	if errors.Is(err, os.ErrNotExist) {
		raw, err = t.backups.Read(source)
	}
	if err != nil {
		return err
	}

	doc, err := store.Decode(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid store file: %w", source, err)
	}
	if _, err := t.backup(ctx); err != nil {
		return fmt.Errorf("backup before restore: %w", err)
	}
	if err := t.store.Replace(doc); err != nil {
		return err
	}
	t.logger.Info("store restored", zap.String("source", source), zap.Int("users", len(doc.Users)))
	fmt.Fprintf(t.out, "restored %d users from %s\n", len(doc.Users), source)
	return nil
}

func (t *tool) pruneAudit(ctx context.Context, olderThan time.Duration) error {
	if t.audit == nil {
		return errors.New("AUDIT_DATABASE_URL is not configured")
	}
	if olderThan <= 0 {
		return errors.New("-older-than must be positive")
	}
	n, err := t.audit.DeleteOlderThan(ctx, t.now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "removed %d audit entries\n", n)
	return nil
}

var accountColumns = []string{
	"id", "email", "name", "active", "verified", "locked_until",
	"failed_logins", "active_sessions", "last_login", "created_at",
}

// exportAccounts writes an account report to dest, or to the backup directory
// when dest is empty. It returns the written path.
func (t *tool) exportAccounts(format export.Format, dest string) (string, error) {
	now := t.now().UTC()
	table := export.Table{Title: "Accounts", GeneratedAt: now, Columns: accountColumns}

	err := t.store.View(func(d *store.Document) error {
		sessions := make(map[string]int)
		for _, rt := range d.RefreshTokens {
			if !rt.IsRevoked && rt.ExpiresAt.After(now) {
				sessions[rt.UserID]++
			}
		}
		for _, u := range d.Users {
			lockedUntil := ""
			if u.Security.Locked(now) {
				lockedUntil = formatTime(u.Security.LockedUntil)
			}
			table.Rows = append(table.Rows, []string{
				u.ID,
				u.Email,
				u.Profile.Name,
				strconv.FormatBool(u.IsActive),
				strconv.FormatBool(u.EmailVerified),
				lockedUntil,
				strconv.Itoa(u.Security.FailedLoginAttempts),
				strconv.Itoa(sessions[u.ID]),
				formatTime(u.LastLoginAt),
				u.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	data, err := export.Render(format, table)
	if err != nil {
		return "", err
	}

	var path string
	if dest == "" {
		path, err = t.backups.Save("accounts-"+now.Format("20060102T150405Z")+"."+string(format), data)
	} else {
		path, err = dest, store.WriteFileAtomic(dest, data)
	}
	if err != nil {
		return "", err
	}
	fmt.Fprintf(t.out, "exported %d accounts to %s\n", len(table.Rows), path)
	return path, nil
}

func formatTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
