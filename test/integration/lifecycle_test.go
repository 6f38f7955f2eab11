// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

//go:build integration

package integration

import (
	"context"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/parley/parley/internal/message"
	"github.com/parley/parley/internal/user"
)

var _ = Describe("Credential lifecycle", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)
	})

	Describe("Register and Authenticate", func() {
		It("accepts the registered password and rejects others", func() {
			registerTestUser("alice")

			ok, err := env.Auth.Authenticate(ctx, "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = env.Auth.Authenticate(ctx, "alice", "wrong")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("returns false for an unknown user", func() {
			ok, err := env.Auth.Authenticate(ctx, "nobody", "whatever")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("rejects a duplicate username", func() {
			registerTestUser("alice")

			_, err := env.Auth.Register(ctx, "alice", "other", "A", "B", "+15550002222")
			Expect(err).To(MatchError(user.ErrDuplicate))
		})

		It("never stores the plaintext password", func() {
			registerTestUser("alice")

			u, err := env.Users.GetByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.PasswordHash).NotTo(ContainSubstring("secret123"))
		})
	})

	Describe("Reset code protocol", func() {
		It("issues, verifies, and consumes a code end to end", func() {
			registerTestUser("alice")

			code, _, err := env.Reset.IssueResetCode(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(HaveLen(6))

			ok, err := env.Reset.VerifyResetCode(ctx, "alice", code)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			Expect(env.Reset.ConsumeResetCode(ctx, "alice", "newpass456")).To(Succeed())

			ok, err = env.Auth.Authenticate(ctx, "alice", "newpass456")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = env.Auth.Authenticate(ctx, "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("supersedes the previous code on re-issue", func() {
			registerTestUser("alice")

			first, _, err := env.Reset.IssueResetCode(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			second, _, err := env.Reset.IssueResetCode(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())

			ok, err := env.Reset.VerifyResetCode(ctx, "alice", second)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			if first != second {
				ok, err = env.Reset.VerifyResetCode(ctx, "alice", first)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			}
		})

		It("reports not found for an unknown user", func() {
			_, _, err := env.Reset.IssueResetCode(ctx, "nobody")
			Expect(err).To(MatchError(user.ErrNotFound))
		})
	})
})

var _ = Describe("Message lifecycle", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)
		registerTestUser("alice")
		registerTestUser("bob")
	})

	It("delivers a message from sender to recipient", func() {
		sent, err := env.Messages.Send(ctx, "alice", "bob", "hello bob")
		Expect(err).NotTo(HaveOccurred())

		got, err := env.Messages.View(ctx, sent.ID, "bob")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Body).To(Equal("hello bob"))
		Expect(got.ReadAt).To(BeNil())
	})

	It("rejects sending to an unknown recipient", func() {
		_, err := env.Messages.Send(ctx, "alice", "nobody", "hello?")
		Expect(err).To(MatchError(user.ErrNotFound))
	})

	It("hides a message from third parties", func() {
		registerTestUser("carol")
		sent, err := env.Messages.Send(ctx, "alice", "bob", "private")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Messages.View(ctx, sent.ID, "carol")
		Expect(err).To(MatchError(message.ErrForbidden))
	})

	It("lets only the recipient mark a message read, idempotently", func() {
		sent, err := env.Messages.Send(ctx, "alice", "bob", "read me")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Messages.MarkRead(ctx, sent.ID, "alice")
		Expect(err).To(MatchError(message.ErrForbidden))

		read, err := env.Messages.MarkRead(ctx, sent.ID, "bob")
		Expect(err).NotTo(HaveOccurred())
		Expect(read.ReadAt).NotTo(BeNil())

		again, err := env.Messages.MarkRead(ctx, sent.ID, "bob")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.ReadAt).To(Equal(read.ReadAt))
	})

	It("returns not found for a missing message ID", func() {
		_, err := env.Messages.View(ctx, ulid.Make(), "alice")
		Expect(err).To(MatchError(message.ErrNotFound))
	})

	It("lists inbox and outbox with counterpart profiles", func() {
		_, err := env.Messages.Send(ctx, "alice", "bob", "first")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.Messages.Send(ctx, "alice", "bob", "second")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.Messages.Send(ctx, "bob", "alice", "reply")
		Expect(err).NotTo(HaveOccurred())

		outbox, err := env.Messages.From(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(outbox).To(HaveLen(2))
		Expect(outbox[0].Body).To(Equal("first"))
		Expect(outbox[1].Body).To(Equal("second"))
		Expect(outbox[0].Counterpart.Username).To(Equal("bob"))

		inbox, err := env.Messages.To(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(inbox).To(HaveLen(1))
		Expect(inbox[0].Body).To(Equal("reply"))
		Expect(inbox[0].Counterpart.Username).To(Equal("bob"))
	})
})
