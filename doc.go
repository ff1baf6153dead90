// Package sigilchat is the end-to-end encryption layer of a chat client.
//
// A [Client] owns the session's RSA keypair, resolves one AES-256-GCM
// session key per chat through the key-distribution service, and seals and
// opens message envelopes of the form
//
//	<base64url(iv)>.<base64url(ciphertext||tag)>
//
// Basic usage:
//
//	client, err := sigilchat.New(
//	    sigilchat.WithBaseURL("https://chat.example.com/api"),
//	    sigilchat.WithToken(token),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.PublishPublicKey(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	members, err := client.Participants(ctx, "u1", "u2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	env, err := client.EncryptMessage(ctx, "chat-42", members, "hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg := client.OpenMessage(ctx, "chat-42", members, env)
//	fmt.Println(msg.Text)
//
// When the key-distribution service cannot be reached, the client derives a
// deterministic fallback key from the chat and participant identifiers so
// that development setups keep working. That key is predictable and gives
// no confidentiality; disable it with [WithoutDeterministicFallback].
package sigilchat
