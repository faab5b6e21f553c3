package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	captcha "github.com/anatolykoptev/go-captcha"
)

// lowBalanceWarn is the threshold for the pre-solve balance warning.
const lowBalanceWarn = 5.0

var (
	captchaType string
	imagePath   string
	imageURL    string
	siteKey     string
	pageURL     string
	action      string
	minScore    float64
	skipBalance bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve one captcha and print the solution",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := captcha.ParseKind(captchaType)
		if err != nil {
			return err
		}

		var req captcha.Request
		switch kind {
		case captcha.KindImage:
			req = captcha.NewImage(imagePath, imageURL)
		case captcha.KindRecaptchaV2:
			req = captcha.NewRecaptchaV2(siteKey, pageURL)
		case captcha.KindRecaptchaV3:
			req = captcha.NewRecaptchaV3(siteKey, pageURL, action, minScore)
		case captcha.KindHCaptcha:
			req = captcha.NewHCaptcha(siteKey, pageURL)
		}

		solver, err := loadSolver()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if !skipBalance {
			for name, res := range solver.Balances(ctx) {
				if res.Err == nil && res.Amount < lowBalanceWarn {
					slog.Warn("captcha service balance low",
						slog.String("service", name), slog.Float64("balance", res.Amount))
				}
			}
		}

		solution, err := solver.Solve(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(solution)
		return nil
	},
}

func init() {
	solveCmd.Flags().StringVarP(&captchaType, "type", "t", "image", "Captcha type: image, recaptcha_v2, recaptcha_v3, hcaptcha")
	solveCmd.Flags().StringVar(&imagePath, "image", "", "Image captcha file path (wins over --image-url)")
	solveCmd.Flags().StringVar(&imageURL, "image-url", "", "Image captcha URL")
	solveCmd.Flags().StringVar(&siteKey, "site-key", "", "Site key for token captchas")
	solveCmd.Flags().StringVar(&pageURL, "page-url", "", "Page URL for token captchas")
	solveCmd.Flags().StringVar(&action, "action", "", "reCAPTCHA v3 action")
	solveCmd.Flags().Float64Var(&minScore, "min-score", 0, "reCAPTCHA v3 minimum score (default 0.7)")
	solveCmd.Flags().BoolVar(&skipBalance, "skip-balance-check", false, "Skip the pre-solve low-balance warning")
}
