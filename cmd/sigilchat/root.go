package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sigilchat "github.com/sigilchat/client-go"
	"github.com/sigilchat/client-go/internal/config"
)

type globalFlags struct {
	envFile    string
	apiURL     string
	token      string
	home       string
	store      string
	passphrase string
	logLevel   string
	keyBits    int
	noFallback bool
}

type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "sigilchat",
		Short:         "End-to-end encrypted chat key management",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.envFile, "env-file", ".env", "dotenv file to read before the environment")
	pf.StringVar(&a.flags.apiURL, "api-url", "", "key-distribution API base URL (env "+config.EnvAPIURL+")")
	pf.StringVar(&a.flags.token, "token", "", "bearer token (env "+config.EnvToken+")")
	pf.StringVar(&a.flags.home, "home", "", "state directory (env "+config.EnvHome+", default ~/.sigilchat)")
	pf.StringVar(&a.flags.store, "store", "", "local key store: file, sqlite or memory (env "+config.EnvStore+")")
	pf.StringVarP(&a.flags.passphrase, "passphrase", "p", "", "passphrase sealing the file store (env "+config.EnvPassphrase+")")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (env "+config.EnvLogLevel+")")
	pf.IntVar(&a.flags.keyBits, "key-bits", 0, "RSA modulus size of the session keypair (env "+config.EnvKeyBits+")")
	pf.BoolVar(&a.flags.noFallback, "no-fallback", false, "fail instead of deriving a fallback key when the service is down")

	root.AddCommand(
		a.keysCmd(),
		a.usersCmd(),
		a.chatCmd(),
		a.dhDemoCmd(),
		a.certDemoCmd(),
		a.keyserverCmd(),
	)
	return root
}

// load reads configuration and applies flags that were set explicitly.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.flags.apiURL
	}
	if flags.Changed("token") {
		cfg.Token = a.flags.token
	}
	if flags.Changed("home") {
		cfg.Home = a.flags.home
	}
	if flags.Changed("store") {
		cfg.Store = config.StoreKind(strings.ToLower(a.flags.store))
	}
	if flags.Changed("passphrase") {
		cfg.Passphrase = a.flags.passphrase
	}
	if flags.Changed("log-level") {
		level, err := logrus.ParseLevel(a.flags.logLevel)
		if err != nil {
			return fmt.Errorf("%w: --log-level: %w", config.ErrInvalidConfig, err)
		}
		cfg.LogLevel = level
	}
	if flags.Changed("key-bits") {
		cfg.KeyBits = a.flags.keyBits
	}
	if a.flags.noFallback {
		cfg.Fallback = false
	}

	a.cfg = cfg
	a.logger = cfg.Logger()
	a.logger.SetOutput(cmd.ErrOrStderr())
	return nil
}

// newClient builds a client from the loaded configuration. The caller must
// close both the client and the returned store.
func (a *app) newClient() (*sigilchat.Client, sigilchat.KeyStore, error) {
	store, err := a.cfg.OpenStore()
	if err != nil {
		return nil, nil, err
	}

	opts := []sigilchat.Option{
		sigilchat.WithBaseURL(a.cfg.APIURL),
		sigilchat.WithToken(a.cfg.Token),
		sigilchat.WithKeyStore(store),
		sigilchat.WithLogger(a.logger),
		sigilchat.WithModulusBits(a.cfg.KeyBits),
	}
	if !a.cfg.Fallback {
		opts = append(opts, sigilchat.WithoutDeterministicFallback())
	}

	client, err := sigilchat.New(opts...)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return client, store, nil
}

// withClient runs fn with a client and releases it afterwards.
func (a *app) withClient(ctx context.Context, fn func(ctx context.Context, c *sigilchat.Client) error) error {
	client, store, err := a.newClient()
	if err != nil {
		return err
	}
	defer store.Close()
	defer client.Close()
	return fn(ctx, client)
}

// participants resolves member ids through the directory. When the service
// is unreachable the members are returned without public keys so that the
// fallback path still sees every id.
func (a *app) participants(ctx context.Context, c *sigilchat.Client, ids []string) ([]sigilchat.Participant, error) {
	members, err := c.Participants(ctx, ids...)
	if err == nil {
		return members, nil
	}
	if !sigilchat.IsUnavailable(err) {
		return nil, err
	}
	a.logger.WithError(err).Warn("user directory unavailable")
	members = make([]sigilchat.Participant, 0, len(ids))
	for _, id := range ids {
		members = append(members, sigilchat.Participant{UserID: id})
	}
	return members, nil
}
