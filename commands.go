package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"seatlicense/config"
	"seatlicense/database"
	"seatlicense/logger"
	"seatlicense/models"
	"seatlicense/services"
	"seatlicense/utils"
)

const keyBits = 2048

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate an RSA key pair for session tokens",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write private.pem and public.pem into `DIR`",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing key files",
			},
		},
		Action: func(c *cli.Context) error {
			privPath, pubPath, err := writeKeyPair(c.String("out"), c.Bool("force"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "private key: %s\npublic key:  %s\n", privPath, pubPath)
			return nil
		},
	}
}

// writeKeyPair PKCS#1 개인키와 PKIX 공개키를 PEM으로 저장합니다.
func writeKeyPair(dir string, force bool) (string, string, error) {
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	if !force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return "", "", fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return "", "", err
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return "", "", err
	}
	return privPath, pubPath, nil
}

func licenseCommand() *cli.Command {
	keyFlag := &cli.StringFlag{
		Name:     "key",
		Aliases:  []string{"k"},
		Usage:    "License `KEY`",
		Required: true,
	}

	return &cli.Command{
		Name:  "license",
		Usage: "Inspect or change license status",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show a license and its active devices",
				Flags:  []cli.Flag{keyFlag},
				Action: withStore(showLicense),
			},
			{
				Name:   "revoke",
				Usage:  "Revoke a license (takes effect on the holder's next verify)",
				Flags:  []cli.Flag{keyFlag},
				Action: withStore(setStatus(models.LicenseStatusRevoked)),
			},
			{
				Name:   "reinstate",
				Usage:  "Mark a revoked license active again",
				Flags:  []cli.Flag{keyFlag},
				Action: withStore(setStatus(models.LicenseStatusActive)),
			},
		},
	}
}

type storeAction func(c *cli.Context, db *database.DB) error

// withStore 관리 명령용 저장소 연결. 서명 키나 웹훅 비밀은 요구하지 않습니다.
func withStore(action storeAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		if err := initLogger(cfg); err != nil {
			return err
		}
		logger.SetLevel(logger.WARN)

		db, err := database.Open(c.Context, cfg.DatabaseOptions())
		if err != nil {
			return err
		}
		defer db.Close()
		return action(c, db)
	}
}

func showLicense(c *cli.Context, db *database.DB) error {
	license, devices, err := services.NewActivationService(db, nil, services.ActivationConfig{}).Devices(c.Context, c.String("key"))
	if errors.Is(err, services.ErrLicenseNotFound) {
		return fmt.Errorf("license %s not found", c.String("key"))
	}
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "key:         %s\n", license.LicenseKey)
	fmt.Fprintf(w, "id:          %s\n", license.ID)
	fmt.Fprintf(w, "email:       %s\n", license.BuyerEmail)
	fmt.Fprintf(w, "status:      %s\n", license.Status)
	if !license.IsActive() {
		fmt.Fprintln(w, "             (activate and verify are refused)")
	}
	fmt.Fprintf(w, "devices:     %d/%d\n", len(devices), license.MaxDevices)
	if license.ExternalRef != nil {
		fmt.Fprintf(w, "reference:   %s\n", *license.ExternalRef)
	}
	fmt.Fprintf(w, "created at:  %s\n", localTime(license.CreatedAt))
	for _, d := range devices {
		fmt.Fprintf(w, "  - %s (since %s)\n", d.HWID, localTime(d.ActivatedAt))
	}
	return nil
}

// localTime 저장된 UTC 시각을 로컬 시간대로 표시. 해석할 수 없으면 원문을 그대로 둡니다.
func localTime(stored string) string {
	t, err := utils.ParseDBDate(stored)
	if err != nil {
		return stored
	}
	return t.Local().Format(time.RFC3339)
}

func setStatus(status models.LicenseStatus) storeAction {
	return func(c *cli.Context, db *database.DB) error {
		err := services.NewLicenseAdmin(db).SetStatus(c.Context, c.String("key"), status)
		if errors.Is(err, services.ErrLicenseNotFound) {
			return fmt.Errorf("license %s not found", c.String("key"))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "license %s is now %s\n", c.String("key"), status)
		return nil
	}
}
