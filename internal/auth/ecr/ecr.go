// Package ecr implements an auth.Provider for AWS Elastic Container
// Registry, grounded on auth/aws/awsecr.py (AwsAuthenticator) but calling
// the modern modular AWS SDK (aws-sdk-go-v2, the style the pack's
// tombee-conductor uses) directly instead of shelling out to a
// ~/.aws/credentials file the way CredBuilder.build_aws_credentials did.
package ecr

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/stevepentland/swarmer/internal/swarmerr"
)

const (
	envAccessKeyID     = "AWS_ACCESS_KEY_ID"
	envSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	envRegion          = "AWS_REGION"
)

// authExpiryDelta mirrors AwsAuthenticator.AUTH_EXPIRY_DELTA, the
// fallback re-auth window used when ECR hasn't told us a token expiry.
const authExpiryDelta = 12 * time.Hour

// ecrClient is the capability surface this package needs from the ECR
// SDK client, so tests can substitute a fake.
type ecrClient interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// Provider authenticates against a private AWS ECR registry.
type Provider struct {
	client      ecrClient
	tokenExpiry time.Time
}

// FromEnv builds a Provider from AWS_ACCESS_KEY_ID(_FILE),
// AWS_SECRET_ACCESS_KEY(_FILE) and AWS_REGION. Returns (nil, nil) when
// none of the three are set (ECR auth is optional), and a
// CredentialError when only some are set (a configuration mismatch,
// fatal before serving per spec §7).
func FromEnv(ctx context.Context) (*Provider, error) {
	accessKeyID, err := readSecret(envAccessKeyID)
	if err != nil {
		return nil, err
	}
	secretKey, err := readSecret(envSecretAccessKey)
	if err != nil {
		return nil, err
	}
	region := strings.TrimSpace(os.Getenv(envRegion))

	present := countNonEmpty(accessKeyID, secretKey, region)
	if present == 0 {
		return nil, nil
	}
	if present != 3 {
		return nil, swarmerr.NewCredentialError(
			"AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_REGION must all be set together")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")),
	)
	if err != nil {
		return nil, swarmerr.NewCredentialError("failed to load AWS config: %v", err)
	}

	return &Provider{client: ecr.NewFromConfig(cfg)}, nil
}

func readSecret(envName string) (string, error) {
	if fileName := os.Getenv(envName + "_FILE"); fileName != "" {
		data, err := os.ReadFile(fileName)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(os.Getenv(envName)), nil
}

func countNonEmpty(vals ...string) int {
	n := 0
	for _, v := range vals {
		if v != "" {
			n++
		}
	}
	return n
}

// ShouldAuthenticate reports whether the ECR token needs refreshing.
func (p *Provider) ShouldAuthenticate(lastLogin time.Time) bool {
	if lastLogin.IsZero() {
		return true
	}
	if !p.tokenExpiry.IsZero() {
		return time.Now().After(p.tokenExpiry)
	}
	return time.Since(lastLogin) > authExpiryDelta
}

// ObtainAuth calls ECR's GetAuthorizationToken and decodes the returned
// base64 "AWS:password" token into a username/password pair.
func (p *Provider) ObtainAuth(ctx context.Context) (string, string, string, error) {
	resp, err := p.client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", "", "", fmt.Errorf("failed to get ECR authorization token: %w", err)
	}
	if len(resp.AuthorizationData) == 0 {
		return "", "", "", fmt.Errorf("ECR returned no authorization data")
	}

	data := resp.AuthorizationData[0]
	if data.ExpiresAt != nil {
		p.tokenExpiry = *data.ExpiresAt
	}

	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to decode ECR authorization token: %w", err)
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", "", fmt.Errorf("malformed ECR authorization token")
	}

	return parts[0], parts[1], aws.ToString(data.ProxyEndpoint), nil
}
