package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"case-service/internal/client"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const maxPages = 50

type session struct {
	viewer client.Viewer
	coord  *client.Coordinator
}

func newSession(confirm client.Confirmer) (*session, error) {
	viewer, err := currentViewer()
	if err != nil {
		return nil, err
	}

	log := newLogger()
	remote := client.NewHTTPRemote(opts.apiURL)
	store := client.NewStore(remote, log)

	coordOpts := []client.Option{client.WithLogger(log)}
	if confirm != nil {
		coordOpts = append(coordOpts, client.WithConfirmer(confirm))
	}

	return &session{
		viewer: viewer,
		coord:  client.NewCoordinator(store, remote, coordOpts...),
	}, nil
}

// locate loads the viewer's working set page by page until id shows up.
func (s *session) locate(ctx context.Context, f client.Filter, id uuid.UUID) (client.Request, error) {
	store := s.coord.Store()

	if _, err := store.Load(ctx, f); err != nil {
		return client.Request{}, err
	}

	for range maxPages {
		if rec, ok := store.Get(id); ok {
			return rec, nil
		}
		if !store.Snapshot().HasMore {
			break
		}
		if _, err := store.LoadMore(ctx); err != nil {
			return client.Request{}, err
		}
	}

	if rec, ok := store.Get(id); ok {
		return rec, nil
	}
	return client.Request{}, client.ErrNotInStore
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q is not a valid request id", raw)
	}
	return id, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%q is not a valid id", raw)
	}
	return &id, nil
}

func printRequests(w io.Writer, requests []client.Request) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tCATEGORY\tSHORTLIST\tVIEWS\tCREATED")
	for _, r := range requests {
		category := "-"
		if r.CategoryName != nil {
			category = *r.CategoryName
		}
		mark := ""
		if r.MyShortlisted {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%s\t%d\t%s\n",
			r.ID, r.Status, r.Title, category, r.ShortlistCount, mark, r.ViewCount, r.CreatedAt.Format(time.DateOnly))
	}
	_ = tw.Flush()
}

func printCounts(w io.Writer, c client.Counts) {
	fmt.Fprintf(w, "\nactive: %d  past: %d  uncategorized: %d\n", c.Active, c.Past, c.Uncategorized)
}

type listFlags struct {
	status   string
	query    string
	category string
	owner    string
	pageSize int
	pages    int
}

func newListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests for the current viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(nil)
			if err != nil {
				return err
			}

			f := defaultFilter(s.viewer)
			if lf.status != "" {
				f.Status = lf.status
			}
			f.Query = lf.query
			f.PageSize = lf.pageSize
			if f.CategoryID, err = optionalID(lf.category); err != nil {
				return err
			}
			if lf.owner != "" {
				if f.OwnerID, err = optionalID(lf.owner); err != nil {
					return err
				}
			}
			if f.Status == client.FilterShortlisted && f.CSRID == nil {
				f.CSRID = &s.viewer.ID
			}

			ctx := cmd.Context()
			store := s.coord.Store()

			if _, err := store.Load(ctx, f); err != nil {
				return err
			}
			for i := 1; i < lf.pages && store.Snapshot().HasMore; i++ {
				if _, err := store.LoadMore(ctx); err != nil {
					return err
				}
			}

			snap := store.Snapshot()
			printRequests(cmd.OutOrStdout(), snap.Records)
			printCounts(cmd.OutOrStdout(), snap.Counts())
			return nil
		},
	}

	cmd.Flags().StringVar(&lf.status, "status", "", "pending, assigned, completed or shortlisted")
	cmd.Flags().StringVarP(&lf.query, "query", "q", "", "keyword in title or description")
	cmd.Flags().StringVar(&lf.category, "category", "", "category id")
	cmd.Flags().StringVar(&lf.owner, "owner", "", "requester id")
	cmd.Flags().IntVar(&lf.pageSize, "page-size", client.DefaultPageSize, "records per page")
	cmd.Flags().IntVar(&lf.pages, "pages", 1, "number of pages to load")

	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search every request by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(nil)
			if err != nil {
				return err
			}

			store := s.coord.Store()
			if _, err := store.Load(cmd.Context(), defaultFilter(s.viewer)); err != nil {
				return err
			}

			found, err := store.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			printRequests(cmd.OutOrStdout(), found)
			return nil
		},
	}
}

func newShortlistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shortlist <request-id>",
		Short: "Add yourself to a pending request's shortlist, or remove yourself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(nil)
			if err != nil {
				return err
			}

			if _, err := s.locate(cmd.Context(), defaultFilter(s.viewer), id); err != nil {
				return err
			}

			member, err := s.coord.ToggleShortlist(cmd.Context(), s.viewer, id)
			if err != nil {
				return err
			}

			rec, _ := s.coord.Store().Get(id)
			if member {
				fmt.Fprintf(cmd.OutOrStdout(), "shortlisted %q (%d interested)\n", rec.Title, rec.ShortlistCount)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "removed from %q (%d interested)\n", rec.Title, rec.ShortlistCount)
			}
			return nil
		},
	}
}

func newAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <request-id>",
		Short: "Assign a pending request to a random shortlisted CSR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(nil)
			if err != nil {
				return err
			}

			f := client.Filter{Status: string(client.StatusPending)}
			if _, err := s.locate(cmd.Context(), f, id); err != nil {
				return err
			}

			csrID, err := s.coord.Assign(cmd.Context(), s.viewer, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "assigned to %s\n", csrID)
			warnStale(cmd, s.coord.Store())
			return nil
		},
	}
}

func newCompleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "complete <request-id>",
		Short: "Mark an assigned request as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			confirm := client.ConfirmFunc(func(_ context.Context, prompt string) bool {
				if yes {
					return true
				}
				fmt.Fprint(cmd.OutOrStdout(), prompt+" [y/N] ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				return answer == "y" || answer == "yes"
			})

			s, err := newSession(confirm)
			if err != nil {
				return err
			}

			f := client.Filter{Status: string(client.StatusAssigned)}
			if _, err := s.locate(cmd.Context(), f, id); err != nil {
				return err
			}

			err = s.coord.Complete(cmd.Context(), s.viewer, id)
			if errors.Is(err, client.ErrCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "completed")
			warnStale(cmd, s.coord.Store())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <request-id>",
		Short: "Delete one of your pending requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(nil)
			if err != nil {
				return err
			}

			if _, err := s.locate(cmd.Context(), defaultFilter(s.viewer), id); err != nil {
				return err
			}

			if err := s.coord.Delete(cmd.Context(), s.viewer, id); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

type requestFlags struct {
	title       string
	description string
	category    string
}

func (rf *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rf.title, "title", "", "request title")
	cmd.Flags().StringVar(&rf.description, "description", "", "request description")
	cmd.Flags().StringVar(&rf.category, "category", "", "category id")
}

func newCreateCmd() *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a new request",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(nil)
			if err != nil {
				return err
			}

			categoryID, err := optionalID(rf.category)
			if err != nil {
				return err
			}

			if _, err := s.coord.Store().Load(cmd.Context(), defaultFilter(s.viewer)); err != nil {
				return err
			}

			err = s.coord.Create(cmd.Context(), s.viewer, client.NewRequest{
				Title:       rf.title,
				Description: optional(rf.description),
				CategoryID:  categoryID,
			})
			if err != nil {
				return err
			}

			printRequests(cmd.OutOrStdout(), s.coord.Store().Snapshot().Records)
			return nil
		},
	}

	rf.register(cmd)
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newEditCmd() *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "edit <request-id>",
		Short: "Change the title, description or category of a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(nil)
			if err != nil {
				return err
			}

			rec, err := s.locate(cmd.Context(), defaultFilter(s.viewer), id)
			if err != nil {
				return err
			}

			edit := client.Edit{
				Title:       rec.Title,
				Description: rec.Description,
				CategoryID:  rec.CategoryID,
			}
			if cmd.Flags().Changed("title") {
				edit.Title = rf.title
			}
			if cmd.Flags().Changed("description") {
				edit.Description = optional(rf.description)
			}
			if cmd.Flags().Changed("category") {
				if edit.CategoryID, err = optionalID(rf.category); err != nil {
					return err
				}
			}

			if err := s.coord.Edit(cmd.Context(), s.viewer, id, edit); err != nil {
				return err
			}

			rec, _ = s.coord.Store().Get(id)
			printRequests(cmd.OutOrStdout(), []client.Request{rec})
			return nil
		},
	}

	rf.register(cmd)

	return cmd
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <request-id>",
		Short: "Show a request and count the view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(nil)
			if err != nil {
				return err
			}

			if _, err := s.locate(cmd.Context(), defaultFilter(s.viewer), id); err != nil {
				return err
			}

			s.coord.RecordView(cmd.Context(), id)
			s.coord.Wait()

			rec, _ := s.coord.Store().Get(id)
			out := cmd.OutOrStdout()
			printRequests(out, []client.Request{rec})
			if rec.Description != nil {
				fmt.Fprintf(out, "\n%s\n", *rec.Description)
			}
			if rec.AssignedCSRID != nil {
				fmt.Fprintf(out, "assigned to: %s\n", rec.AssignedCSRID)
			}
			if rec.CompletedAt != nil {
				fmt.Fprintf(out, "completed at: %s\n", rec.CompletedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newListCmd(),
		newSearchCmd(),
		newCreateCmd(),
		newEditCmd(),
		newShortlistCmd(),
		newAssignCmd(),
		newCompleteCmd(),
		newDeleteCmd(),
		newViewCmd(),
		newSeedCmd(),
	)
}

// warnStale tells the user when the refresh after a successful change failed.
func warnStale(cmd *cobra.Command, store *client.Store) {
	if store.Snapshot().Stale {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: the request list could not be refreshed and may be out of date")
	}
}
