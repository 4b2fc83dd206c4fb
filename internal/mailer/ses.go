package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"linkauth/internal/models"
)

// SES sends sign-in links through Amazon SES.
type SES struct {
	client *sesv2.Client
	from   string
}

// NewSES builds an SES sender using the ambient AWS configuration
// (environment, shared config, or instance role).
func NewSES(ctx context.Context, from string) (*SES, error) {
	if from == "" {
		return nil, fmt.Errorf("mailer: from address is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("mailer: load AWS config: %w", err)
	}

	return &SES{client: sesv2.NewFromConfig(cfg), from: from}, nil
}

// Send emails the link to the user. Errors propagate unwrapped in
// meaning: a failed delivery fails the issuing request.
func (s *SES) Send(ctx context.Context, user *models.User, link string) error {
	body, err := renderLoginEmail(user, link)
	if err != nil {
		return err
	}

	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{user.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(loginSubject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("mailer: send email to %s: %w", user.Email, err)
	}

	return nil
}
