package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/llm"
	"github.com/maildraft/maildraft/internal/logger"
	"github.com/maildraft/maildraft/internal/mail"
	"github.com/maildraft/maildraft/internal/service"
	"github.com/maildraft/maildraft/internal/session"
)

const version = "0.1.0"

var (
	draftTo      []string
	draftContext string
	draftSender  string
	draftSend    bool

	sendTo      []string
	sendSubject string
	sendBody    string
	sendSender  string
)

var rootCmd = &cobra.Command{
	Use:   "maildraft",
	Short: "Operator CLI for the maildraft email service",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured mail transport credentials",
	RunE:  runCheck,
}

var draftCmd = &cobra.Command{
	Use:   "draft [prompt]",
	Short: "Generate an email draft from a prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraft,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an email with an explicit subject and body",
	RunE:  runSend,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the maildraft version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maildraft %s\n", version)
	},
}

func init() {
	draftCmd.Flags().StringArrayVar(&draftTo, "to", nil, "recipient address (repeatable)")
	draftCmd.Flags().StringVar(&draftContext, "context", "", "context hint for the draft")
	draftCmd.Flags().StringVar(&draftSender, "sender", "", "sender display name")
	draftCmd.Flags().BoolVar(&draftSend, "send", false, "send the draft after generating it")

	sendCmd.Flags().StringArrayVar(&sendTo, "to", nil, "recipient address (repeatable)")
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "email subject")
	sendCmd.Flags().StringVar(&sendBody, "body", "", "email body")
	sendCmd.Flags().StringVar(&sendSender, "sender", "", "sender display name")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getService() (*service.EmailService, *config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New("warn", "text")

	var provider llm.TextCompletionProvider
	if cfg.Groq.Configured() {
		groq, err := llm.NewGroqClient(cfg.Groq)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Groq client: %w", err)
		}
		provider = groq
	}

	var transport mail.Transport
	switch cfg.Email.Provider {
	case "gmail":
		if cfg.Email.Gmail.Configured() {
			transport, err = mail.NewGmailTransport(context.Background(), cfg.Email.Gmail)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to initialize Gmail transport: %w", err)
			}
		}
	default:
		if cfg.Email.SMTP.Configured() {
			transport, err = mail.NewSMTPTransport(cfg.Email.SMTP)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to initialize SMTP transport: %w", err)
			}
		}
	}

	return service.New(provider, transport, cfg, log), cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	svc, cfg, err := getService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.VerifyTransport(ctx); err != nil {
		return fmt.Errorf("email config check failed: %w", err)
	}

	fmt.Printf("Email config is valid for %s\n", cfg.Email.SenderAddress())
	return nil
}

func runDraft(cmd *cobra.Command, args []string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}

	sess := session.New()
	for _, addr := range draftTo {
		if err := sess.AddRecipient(addr); err != nil {
			return fmt.Errorf("recipient %q: %w", addr, err)
		}
	}
	if draftContext != "" {
		sess.SetContext(draftContext)
	}
	if draftSender != "" {
		sess.SetSenderName(draftSender)
	}
	sess.SetPrompt(args[0])

	if err := sess.BeginGenerate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	d, err := svc.Generate(ctx, service.GenerateRequest{
		Prompt:     sess.Prompt(),
		Recipients: sess.Recipients().Addresses(),
		Context:    sess.Context(),
	})
	if err != nil {
		_ = sess.FailGenerate(err.Error())
		return fmt.Errorf("failed to generate email: %w", err)
	}
	if err := sess.CompleteGenerate(d); err != nil {
		return err
	}

	fmt.Printf("Subject: %s\n\n%s\n", d.Subject, d.Body)

	if !draftSend {
		return nil
	}

	if err := sess.BeginSend(); err != nil {
		return err
	}

	receipt, err := svc.Send(ctx, service.SendRequest{
		Recipients: sess.Recipients().Addresses(),
		Subject:    sess.Draft().Subject,
		Body:       sess.Draft().Body,
		SenderName: sess.SenderName(),
	})
	if err != nil {
		_ = sess.FailSend(err.Error())
		return fmt.Errorf("failed to send email: %w", err)
	}
	if err := sess.CompleteSend(); err != nil {
		return err
	}

	fmt.Printf("\nSent as %s\n", receipt.MessageID)
	if receipt.PreviewURL != "" {
		fmt.Printf("Preview: %s\n", receipt.PreviewURL)
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	receipt, err := svc.Send(ctx, service.SendRequest{
		Recipients: sendTo,
		Subject:    sendSubject,
		Body:       sendBody,
		SenderName: sendSender,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Printf("Sent as %s to %d recipient(s)\n", receipt.MessageID, len(receipt.Recipients))
	if receipt.PreviewURL != "" {
		fmt.Printf("Preview: %s\n", receipt.PreviewURL)
	}
	return nil
}
