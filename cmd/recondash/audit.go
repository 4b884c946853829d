package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/araddon/dateparse"
	"github.com/recondash/recondash/internal/format"
	"github.com/recondash/recondash/internal/model"
	"github.com/recondash/recondash/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	auditKind   string
	auditSince  string
	auditLimit  int
	purgeBefore string
)

var errAuditDisabled = errors.New("audit log is disabled (set --db or RECONDASH_AUDIT_DB)")

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recorded sign-in and session events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := storage.AuditListFilter{Limit: auditLimit}
		if auditKind != "" {
			kind := model.AuditKind(auditKind)
			if !kind.IsValid() {
				return fmt.Errorf("%w: %q", model.ErrInvalidAuditKind, auditKind)
			}
			filter.Kind = string(kind)
		}
		if auditSince != "" {
			since, err := dateparse.ParseIn(auditSince, time.UTC)
			if err != nil {
				return fmt.Errorf("parse --since: %w", err)
			}
			filter.Since = &since
		}
		return withAuditLog(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
			events, err := repo.ListEvents(ctx, filter)
			if err != nil {
				return err
			}
			total, err := repo.CountEvents(ctx, filter.Kind)
			if err != nil {
				return err
			}
			return printEvents(cmd.OutOrStdout(), events, total)
		})
	},
}

var auditPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete audit events recorded before a cutoff",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if purgeBefore == "" {
			return errors.New("--before is required")
		}
		cutoff, err := dateparse.ParseIn(purgeBefore, time.UTC)
		if err != nil {
			return fmt.Errorf("parse --before: %w", err)
		}
		return withAuditLog(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
			n, err := repo.PurgeBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			logger.Info("purged audit events", zap.Int64("deleted", n), zap.Time("before", cutoff))
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s event(s) before %s\n",
				format.Number(n), format.Date(cutoff, format.DateLong))
			return nil
		})
	},
}

func withAuditLog(ctx context.Context, fn func(context.Context, *storage.SQLiteRepository) error) error {
	if cfg.AuditDBPath == "" {
		return errAuditDisabled
	}
	if ctx == nil {
		ctx = context.Background()
	}
	repo, err := storage.OpenSQLite(cfg.AuditDBPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer repo.Close()
	return fn(ctx, repo)
}

func printEvents(w io.Writer, events []storage.AuditEvent, total int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tKIND\tACTOR\tDETAIL")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", format.Date(ev.CreatedAt, format.DateLong), ev.Kind, ev.Actor, ev.Detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s of %s event(s)\n", format.Number(int64(len(events))), format.Number(int64(total)))
	return err
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditPurgeCmd)
	auditCmd.Flags().StringVar(&auditKind, "kind", "", "only events of this kind (e.g. mfa_failed)")
	auditCmd.Flags().StringVar(&auditSince, "since", "", "only events at or after this time")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum events to print; 0 prints all")
	auditPurgeCmd.Flags().StringVar(&purgeBefore, "before", "", "cutoff time, e.g. 2025-01-01")
}
