package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	logFlags string
	logger   Logger = nopLogger{}
)

func main() {
	root := &cobra.Command{
		Use:           "fourpda-dl",
		Short:         "Log in to 4pda.to and resolve forum attachments into direct download links",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = NewConsoleLogger(logFlags)
			_ = godotenv.Load()
			logger.Debugf("logging initialized with flags: %q", logFlags)
		},
	}
	root.PersistentFlags().StringVar(&logFlags, "log", "", `logger switches: d=debug, t=timestamps, c=color (example: "dtc")`)

	root.AddCommand(loginCmd(), logoutCmd(), verifyCmd(), resolveCmd())

	if err := root.Execute(); err != nil {
		logger.Errorf("%v", err)
		if IsRetryableError(err) {
			logger.Infof("this looks transient, try again")
		}
		os.Exit(1)
	}
}

func loadConfigOrDie() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	logger.Debugf("loaded config file: %s", cfg.Path())
	return cfg
}

func openSession(cfg *Config) (*Session, error) {
	return NewSession(cfg, logger, os.Getenv("FOURPDA_PROXY"))
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in through the captcha challenge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			sess, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			ok, err := Login(sess, cfg, NewStdinPrompter(), logger, args[0], args[1], false)
			if err != nil {
				return err
			}
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Logout(loadConfigOrDie(), logger)
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the stored session is still valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			sess, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			ok, err := Verify(sess, cfg, logger)
			if err != nil {
				return err
			}
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "u <url>",
		Short: "Resolve a forum download page into a direct link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			sess, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			link, err := ResolveDirectLink(sess, cfg, logger, args[0])
			if err != nil {
				return err
			}
			fmt.Println(link)
			return nil
		},
	}
}
