package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/form"
	"github.com/jmehdipour/domain-offers/internal/logger"
	"github.com/jmehdipour/domain-offers/internal/model"
)

type offerFlags struct {
	url                 string
	host                string
	locale              string
	token               string
	challengeConfigured bool
	timeout             time.Duration
	fields              form.Fields
}

// newOfferCmd submits one offer through the form controller, the same way
// the page does.
func newOfferCmd() *cobra.Command {
	var f offerFlags

	cmd := &cobra.Command{
		Use:   "offer",
		Short: "Submit a purchase offer to a running relay",
		Long: "Submit a purchase offer to a running relay.\n\n" +
			"When --challenge-configured is set and the relay host is not local, an empty\n" +
			"--token behaves like a loaded widget that has not been solved yet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffer(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.url, "url", "http://localhost:3000/api/contact", "relay endpoint")
	fl.StringVar(&f.host, "host", "", "page hostname (defaults to the relay host)")
	fl.StringVar(&f.locale, "locale", "", "page locale (empty: the site default)")
	fl.StringVar(&f.token, "token", "", "challenge token from the widget")
	fl.BoolVar(&f.challengeConfigured, "challenge-configured", false, "a challenge site key is configured (defaults to config)")
	fl.DurationVar(&f.timeout, "timeout", 30*time.Second, "request timeout")
	fl.StringVar(&f.fields.Name, "name", "", "your name")
	fl.StringVar(&f.fields.Email, "email", "", "your email")
	fl.StringVar(&f.fields.Phone, "phone", "", "phone number")
	fl.StringVar(&f.fields.Offer, "offer", "", "offer, e.g. \"$5000\"")
	fl.StringVar(&f.fields.Message, "message", "", "message to the owner")

	return cmd
}

func runOffer(cmd *cobra.Command, f offerFlags) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	configured := f.challengeConfigured
	if !cmd.Flags().Changed("challenge-configured") {
		configured = cfg.Challenge.SiteKey != ""
	}

	c := form.NewController(form.Options{
		RelayURL:            f.url,
		Locale:              model.Locale(f.locale),
		ChallengeConfigured: configured,
		Host:                f.host,
		Logger:              log,
	})

	c.Update("name", f.fields.Name)
	c.Update("email", f.fields.Email)
	c.Update("phone", f.fields.Phone)
	c.Update("offer", f.fields.Offer)
	c.Update("message", f.fields.Message)

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	widget := form.WidgetFunc(func(context.Context) (string, error) { return f.token, nil })
	if err := c.AcquireChallenge(ctx, widget); err != nil {
		return fmt.Errorf("challenge: %w", err)
	}

	if err := c.Submit(ctx); err != nil {
		return errors.New(form.Message(err))
	}

	snap := c.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "offer submitted (confirmation email sent: %t)\n", snap.ConfirmationSent)

	return nil
}
