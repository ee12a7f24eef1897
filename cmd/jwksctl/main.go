package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/hellojohn-jwks/internal/jwt"
)

type client struct {
	BaseURL   string
	AdminKey  string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
	Out       io.Writer
}

func (c *client) do(ctx context.Context, method, path string, headers map[string]string) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Fprintln(c.Out, string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Fprintln(c.Out, strings.TrimSpace(string(body)))
	} else {
		fmt.Fprintf(c.Out, "status=%d\n", status)
	}
}

// fetchJWKS descarga y parsea GET /jwks.
func (c *client) fetchJWKS(ctx context.Context) (*jwtx.JWKS, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/jwks", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("jwks fallo: status=%d body=%s", status, string(body))
	}
	return jwtx.ParseJWKS(body)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	cl := &client{
		BaseURL:   envOr("JWKS_URL", "http://localhost:8080"),
		AdminKey:  envOr("JWKS_ADMIN_KEY", ""),
		OutFormat: envOr("JWKS_OUT", "text"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Out:       out,
	}

	root := &cobra.Command{
		Use:           "jwksctl",
		Short:         "CLI para el JWKS server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cl.BaseURL, "url", cl.BaseURL, "URL base del server (env JWKS_URL)")
	root.PersistentFlags().StringVar(&cl.AdminKey, "admin-key", cl.AdminKey, "API key de admin (env JWKS_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")

	jwksCmd := &cobra.Command{
		Use:   "jwks",
		Short: "Muestra las claves publicadas",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do(cmd.Context(), http.MethodGet, "/jwks", nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("jwks fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				set, err := jwtx.ParseJWKS(body)
				if err != nil {
					return err
				}
				if len(set.Keys) == 0 {
					fmt.Fprintln(out, "(sin claves)")
				}
				for _, k := range set.Keys {
					fmt.Fprintf(out, "%s\t%s\t%s\n", k.KID, k.Kty, k.Alg)
				}
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	var expired bool
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Pide un token a POST /auth",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/auth"
			if expired {
				path += "?expired=true"
			}
			status, body, err := cl.do(cmd.Context(), http.MethodPost, path, nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("token fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				var tr struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(body, &tr); err != nil {
					return err
				}
				fmt.Fprintln(out, tr.Token)
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}
	tokenCmd.Flags().BoolVar(&expired, "expired", false, "Pedir un token ya vencido")

	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verifica un token contra el JWKS publicado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok := strings.TrimSpace(args[0])
			set, err := cl.fetchJWKS(cmd.Context())
			if err != nil {
				return err
			}
			claims, err := jwtx.ParseRS256(tok, set, time.Now())
			if err != nil {
				kid, exp, herr := jwtx.UnverifiedHeader(tok)
				if herr != nil {
					return fmt.Errorf("token inválido: %w", err)
				}
				return fmt.Errorf("token inválido (kid=%s exp=%s): %w", kid, exp.UTC().Format(time.RFC3339), err)
			}
			if cl.OutFormat == "json" {
				b, _ := json.Marshal(claims)
				cl.print(http.StatusOK, b)
				return nil
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	retireCmd := &cobra.Command{
		Use:   "retire-oldest",
		Short: "Retira la clave activa más vieja (requiere --admin-key)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cl.AdminKey == "" {
				return errors.New("falta admin key (flag --admin-key o env JWKS_ADMIN_KEY)")
			}
			status, body, err := cl.do(cmd.Context(), http.MethodPost, "/admin/keys/retire-oldest",
				map[string]string{"X-Admin-API-Key": cl.AdminKey})
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("retire-oldest fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	keysCmd := &cobra.Command{Use: "keys", Short: "Operaciones sobre las claves"}
	keysCmd.AddCommand(retireCmd)

	root.AddCommand(jwksCmd, tokenCmd, verifyCmd, keysCmd)
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
