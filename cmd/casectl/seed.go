package main

import (
	"fmt"

	"case-service/internal/client"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		count      int
		requesters int
		categories []string
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo requests with fake content",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 || requesters <= 0 {
				return fmt.Errorf("count and requesters must be positive")
			}

			categoryIDs := make([]uuid.UUID, 0, len(categories))
			for _, raw := range categories {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("%q is not a valid category id", raw)
				}
				categoryIDs = append(categoryIDs, id)
			}

			faker := gofakeit.New(seed)
			remote := client.NewHTTPRemote(opts.apiURL)

			pins := make([]uuid.UUID, requesters)
			for i := range pins {
				pins[i] = uuid.New()
			}

			created := 0
			for range count {
				req := newFakeRequest(faker, categoryIDs)
				pin := pins[faker.Number(0, len(pins)-1)]

				if err := remote.Create(cmd.Context(), pin, req); err != nil {
					return fmt.Errorf("created %d of %d: %w", created, count, err)
				}
				created++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %d requests for %d requesters\n", created, requesters)
			for _, pin := range pins {
				fmt.Fprintln(cmd.OutOrStdout(), pin)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "number of requests")
	cmd.Flags().IntVar(&requesters, "requesters", 3, "number of distinct PIN users")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "category ids to spread requests over")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 for a random one")

	return cmd
}

func newFakeRequest(faker *gofakeit.Faker, categoryIDs []uuid.UUID) client.NewRequest {
	description := faker.Paragraph(1, 2, 12, " ")

	req := client.NewRequest{
		Title:       faker.Sentence(4),
		Description: &description,
	}

	if len(categoryIDs) > 0 && faker.Bool() {
		id := categoryIDs[faker.Number(0, len(categoryIDs)-1)]
		req.CategoryID = &id
	}

	return req
}
