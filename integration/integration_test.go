//go:build integration

package integration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	sigilchat "github.com/sigilchat/client-go"
)

var baseURL string

func TestMain(m *testing.M) {
	// Load .env file if it exists (won't error if missing)
	if err := godotenv.Load("../.env"); err != nil {
		os.Stderr.WriteString("Note: .env file not found at project root\n")
	}

	baseURL = os.Getenv("SIGILCHAT_API_URL")
	if baseURL == "" {
		os.Stderr.WriteString("Skipping integration tests: SIGILCHAT_API_URL not set\n")
		os.Exit(0)
	}

	os.Stderr.WriteString("Running integration tests...\n")
	os.Stderr.WriteString("API URL: " + baseURL + "\n")

	os.Exit(m.Run())
}

// newClient returns a client for userID. The service under test must accept
// the user id as bearer token, as the development key server does.
func newClient(t *testing.T, userID string, opts ...sigilchat.Option) *sigilchat.Client {
	t.Helper()

	base := []sigilchat.Option{
		sigilchat.WithBaseURL(baseURL),
		sigilchat.WithToken(userID),
		sigilchat.WithTimeout(30 * time.Second),
		sigilchat.WithModulusBits(2048),
		sigilchat.WithoutDeterministicFallback(),
	}

	client, err := sigilchat.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestIntegration_SharedChatKey(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	run := uuid.NewString()[:8]
	aliceID, bobID, chatID := "alice-"+run, "bob-"+run, "chat-"+run

	alice := newClient(t, aliceID)
	bob := newClient(t, bobID)
	for _, c := range []*sigilchat.Client{alice, bob} {
		if err := c.PublishPublicKey(ctx); err != nil {
			t.Fatalf("PublishPublicKey() error = %v", err)
		}
	}

	members, err := alice.Participants(ctx, aliceID, bobID)
	if err != nil {
		t.Fatalf("Participants() error = %v", err)
	}

	res, err := alice.ChatKey(ctx, chatID, members)
	if err != nil {
		t.Fatalf("ChatKey() error = %v", err)
	}
	t.Logf("Resolved %s key, distribution %+v", res.Source, res.Distribution)

	env, err := alice.EncryptMessage(ctx, chatID, members, "integration hello")
	if err != nil {
		t.Fatalf("EncryptMessage() error = %v", err)
	}

	bobRes, err := bob.ChatKey(ctx, chatID, members)
	if err != nil {
		t.Fatalf("bob ChatKey() error = %v", err)
	}
	if bobRes.Source != sigilchat.SourceRemote {
		t.Errorf("bob Source = %s, want %s", bobRes.Source, sigilchat.SourceRemote)
	}
	if !bytes.Equal(bobRes.Key, res.Key) {
		t.Fatal("participants resolved different keys")
	}

	msg := bob.OpenMessage(ctx, chatID, members, env)
	if msg.Unreadable || msg.Text != "integration hello" {
		t.Errorf("OpenMessage() = %+v", msg)
	}
}

func TestIntegration_Unauthorized(t *testing.T) {
	client := newClient(t, "")

	_, err := client.ChatKey(context.Background(), "chat-unauthorized", nil)
	if !errors.Is(err, sigilchat.ErrUnauthorized) {
		t.Errorf("ChatKey() error = %v, want ErrUnauthorized", err)
	}
}
