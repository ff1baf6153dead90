package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigilchat/client-go/internal/certsim"
	"github.com/sigilchat/client-go/internal/dh"
)

func (a *app) dhDemoCmd() *cobra.Command {
	var (
		kdfName string
		message string
		alice   string
		bob     string
	)

	cmd := &cobra.Command{
		Use:   "dh-demo",
		Short: "Run a Diffie-Hellman exchange over the RFC 3526 1536-bit group",
		RunE: func(cmd *cobra.Command, args []string) error {
			kdf, err := dh.ParseKDF(kdfName)
			if err != nil {
				return err
			}
			ex, err := dh.NewExchange(dh.RFC3526Group5(), kdf, alice, bob)
			if err != nil {
				return err
			}
			tr, err := ex.Run(message)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, s := range tr.Steps {
				fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, s.Title, s.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kdfName, "kdf", string(dh.KDFSHA256), "key derivation: sha256 or hkdf-sha256")
	cmd.Flags().StringVar(&message, "message", "Hello from Alice!", "message Alice sends to Bob")
	cmd.Flags().StringVar(&alice, "alice", "Alice", "name of the first party")
	cmd.Flags().StringVar(&bob, "bob", "Bob", "name of the second party")
	return cmd
}

func (a *app) certDemoCmd() *cobra.Command {
	var (
		algName  string
		issuerID string
		subject  certsim.Identity
		years    int
	)

	cmd := &cobra.Command{
		Use:   "cert-demo",
		Short: "Issue and verify a simulated certificate",
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := certsim.ParseAlgorithm(algName)
			if err != nil {
				return err
			}
			issuer, ok := certsim.Authority(issuerID)
			if !ok {
				return fmt.Errorf("unknown issuer %q", issuerID)
			}
			if subject.ID == "" {
				subject.ID = subject.Email
			}

			record, err := certsim.NewRecord(subject, issuer, time.Now(), years)
			if err != nil {
				return err
			}
			key, err := certsim.GenerateIssuerKey(alg)
			if err != nil {
				return err
			}
			cert, err := certsim.Issue(record, key)
			if err != nil {
				return err
			}
			canonical, err := record.Canonical()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "subject:     %s <%s>\n", subject.Name, subject.Email)
			fmt.Fprintf(out, "issuer:      %s (%s)\n", issuer.Name, issuer.Organization)
			fmt.Fprintf(out, "validity:    %s .. %s\n", record.Validity.From, record.Validity.To)
			fmt.Fprintf(out, "serial:      %s\n", record.Serial)
			fmt.Fprintf(out, "algorithm:   %s\n", cert.Algorithm)
			fmt.Fprintf(out, "fingerprint: %s\n", cert.Fingerprint)
			fmt.Fprintf(out, "signed data: %s\n", canonical)
			fmt.Fprintf(out, "signature:   %s\n", abbreviate(cert.SignatureBase64(), 64))
			fmt.Fprintf(out, "verified:    %t\n", certsim.Verify(cert, key.Public()))
			return nil
		},
	}

	cmd.Flags().StringVar(&algName, "alg", string(certsim.RSAPKCS1v15), "signature algorithm: RSA-PKCS1v15-SHA256, RSA-PSS-SHA256 or ML-DSA-65")
	cmd.Flags().StringVar(&issuerID, "issuer", certsim.Authorities[0].ID, "issuer id: ac-br, ac-mz or ac-global")
	cmd.Flags().StringVar(&subject.ID, "subject-id", "", "subject user id (default: the email)")
	cmd.Flags().StringVar(&subject.Name, "subject-name", "Demo User", "subject name")
	cmd.Flags().StringVar(&subject.Email, "subject-email", "demo@example.com", "subject email")
	cmd.Flags().IntVar(&years, "years", 1, "validity in years")
	return cmd
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
