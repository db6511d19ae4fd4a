package main

import (
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/golang-jwt/jwt/v5"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"software.sslmate.com/src/go-pkcs12"

	"msgtracetool/internal/common/logger"
	"msgtracetool/internal/common/security"
	"msgtracetool/internal/exchange"
)

const graphScope = "https://graph.microsoft.com/.default"

// TokenClaims represents relevant claims from Microsoft Entra ID JWT tokens
type TokenClaims struct {
	AppDisplayName       string   `json:"app_displayname"`
	Roles                []string `json:"roles"` // e.g. Exchange.ManageAsApp, Mail.Send
	jwt.RegisteredClaims
}

// getCredential builds the app-only credential selected by the configuration.
func getCredential(config *Config, slogger *slog.Logger) (azcore.TokenCredential, error) {
	logger.LogDebug(slogger, "Setting up credential",
		"tenantID", security.MaskGUID(config.TenantID),
		"clientID", security.MaskGUID(config.ClientID))

	if config.Secret != "" {
		logger.LogDebug(slogger, "Authentication method: Client Secret")
		return azidentity.NewClientSecretCredential(config.TenantID, config.ClientID, config.Secret, nil)
	}

	if config.PfxPath != "" {
		logger.LogDebug(slogger, "Authentication method: PFX Certificate File", "path", config.PfxPath)
		pfxData, err := os.ReadFile(config.PfxPath)
		if err != nil {
			logger.LogError(slogger, "Failed to read PFX file", "path", config.PfxPath, "error", err)
			return nil, fmt.Errorf("failed to read PFX file: %w", err)
		}
		logger.LogDebug(slogger, "PFX file read successfully", "bytes", len(pfxData))
		return createCertCredential(config.TenantID, config.ClientID, pfxData, config.PfxPass)
	}

	return nil, fmt.Errorf("no valid authentication method provided (use -secret or -pfx)")
}

func createCertCredential(tenantID, clientID string, pfxData []byte, password string) (*azidentity.ClientCertificateCredential, error) {
	// DecodeChain handles SHA-256 (Modern2023) as well as legacy RC2/3DES files.
	key, cert, caCerts, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PFX: %w", err)
	}

	privKey, ok := key.(crypto.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("decoded key is not a valid crypto.PrivateKey")
	}

	// Leaf first, then the CA chain.
	certs := []*x509.Certificate{cert}
	certs = append(certs, caCerts...)

	opts := &azidentity.ClientCertificateCredentialOptions{
		SendCertificateChain: true,
	}
	return azidentity.NewClientCertificateCredential(tenantID, clientID, certs, privKey, opts)
}

// showTokenInfo acquires an Exchange admin API token and prints its claims.
// Failures are reported but never stop the run.
func showTokenInfo(ctx context.Context, cred azcore.TokenCredential) {
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{exchange.Scope}})
	if err != nil {
		logger.LogVerbose(true, "Warning: Could not retrieve token for verbose display: %v", err)
		return
	}
	printTokenInfo(token)
}

func printTokenInfo(token azcore.AccessToken) {
	fmt.Println()
	fmt.Println("Token Information:")
	fmt.Println("------------------")
	fmt.Printf("Expires at: %s\n", token.ExpiresOn.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Valid for: %s\n", time.Until(token.ExpiresOn).Round(time.Second))
	fmt.Printf("Token (truncated): %s\n", security.MaskAccessToken(token.Token))
	fmt.Printf("Token length: %d characters\n", len(token.Token))

	fmt.Println()
	fmt.Println("JWT Claims:")
	appName, roles, err := parseTokenClaims(token.Token)
	if err != nil {
		fmt.Printf("  (Could not parse JWT claims: %v)\n", err)
	} else {
		fmt.Printf("  Application Name: %s\n", appName)
		fmt.Printf("  Assigned Roles: %s\n", roles)
	}
	fmt.Println()
}

// parseTokenClaims extracts application name and assigned roles from a JWT access token.
func parseTokenClaims(tokenString string) (string, string, error) {
	// Signature already checked by Entra ID; only the claims are read here.
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, &TokenClaims{})
	if err != nil {
		return "", "", fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return "", "", fmt.Errorf("failed to extract claims from token")
	}

	appName := claims.AppDisplayName
	if appName == "" {
		appName = "(not available)"
	}

	rolesStr := "(none)"
	if len(claims.Roles) > 0 {
		rolesStr = strings.Join(claims.Roles, ", ")
	}

	return appName, rolesStr, nil
}

// setupGraphClient creates the Microsoft Graph client used for group name
// resolution and mailing the report.
func setupGraphClient(cred azcore.TokenCredential, slogger *slog.Logger) (*msgraphsdk.GraphServiceClient, error) {
	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, []string{graphScope})
	if err != nil {
		return nil, fmt.Errorf("graph client initialization failed: %w", err)
	}
	logger.LogDebug(slogger, "Graph SDK client initialized", "scope", graphScope)
	return client, nil
}
