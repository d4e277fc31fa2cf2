package cli

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbd888/risc/internal/idgen"
	"github.com/mbd888/risc/pkg/risc"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Decrypt, validate and seal risk snapshots",
}

var snapshotDecryptCmd = &cobra.Command{
	Use:   "decrypt <blob|->",
	Short: "Decrypt a snapshot and check it is no more than ten minutes old",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, snap, err := decryptArg(cmd, args, false)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(snap))
		return nil
	},
}

var snapshotValidateCmd = &cobra.Command{
	Use:   "validate <blob|->",
	Short: "Decrypt a snapshot and confirm it with the RISC server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, snap, err := decryptArg(cmd, args, true)
		if err != nil {
			return err
		}
		confirmed, err := c.ValidateSnapshot(cmd.Context(), snap)
		if err != nil {
			return fmt.Errorf("snapshot validation failed: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(confirmed))
		return nil
	},
}

var (
	sealIDFlag      string
	sealBrowserFlag string
	sealScoreFlag   float64
	sealStatusFlag  string
	sealDateFlag    int64
	sealIndexFlag   int
	sealIVFlag      string
)

var snapshotSealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt a snapshot the way the browser script does (for testing integrations)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Secret == "" {
			return fmt.Errorf("RISC_API_SECRET is required")
		}
		status := risc.Status(strings.ToLower(sealStatusFlag))
		if !status.Valid() {
			return fmt.Errorf("invalid --status %q (want risky, passed or failed)", sealStatusFlag)
		}

		ivHex := sealIVFlag
		if ivHex == "" {
			ivHex = idgen.Hex(16)
		}
		iv, err := hex.DecodeString(ivHex)
		if err != nil {
			return fmt.Errorf("invalid --iv: %w", err)
		}

		date := sealDateFlag
		if date == 0 {
			date = time.Now().Unix()
		}

		blob, err := risc.SealSnapshot(cfg.Secret, sealIndexFlag, iv, &risc.Snapshot{
			SnapshotID: orRandom(sealIDFlag),
			BrowserID:  orRandom(sealBrowserFlag),
			Date:       date,
			Score:      sealScoreFlag,
			Status:     status,
		})
		if err != nil {
			return fmt.Errorf("failed to seal snapshot: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), blob)
		return nil
	},
}

// offlineToken stands in for RISC_API_TOKEN when a snapshot is only
// decrypted locally. Decryption uses the secret alone.
const offlineToken = "offline"

func decryptArg(cmd *cobra.Command, args []string, online bool) (*risc.Client, *risc.Snapshot, error) {
	blob, err := readArg(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	c, err := snapshotClient(cmd, online)
	if err != nil {
		return nil, nil, err
	}
	snap := c.DecryptSnapshot(strings.TrimSpace(blob))
	if snap == nil {
		return nil, nil, fmt.Errorf("snapshot could not be decrypted or is out of date")
	}
	return c, snap, nil
}

// snapshotClient returns a client for snapshot work. Offline use needs only
// the secret; the client it builds is not cached for API commands.
func snapshotClient(cmd *cobra.Command, online bool) (*risc.Client, error) {
	if online || client != nil {
		return riscClient(cmd)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("RISC_API_SECRET is required")
	}
	local := *cfg
	if local.Token == "" {
		local.Token = offlineToken
	}
	return risc.New(local.Options(risc.NewConsoleOutput(cmd.ErrOrStderr()), logger))
}

func orRandom(v string) string {
	if v != "" {
		return v
	}
	return idgen.Hex(8)
}

func init() {
	snapshotSealCmd.Flags().StringVar(&sealIDFlag, "snapshot-id", "", "snapshot ID (default random)")
	snapshotSealCmd.Flags().StringVar(&sealBrowserFlag, "browser-id", "", "browser ID (default random)")
	snapshotSealCmd.Flags().Float64Var(&sealScoreFlag, "score", 0, "risk score")
	snapshotSealCmd.Flags().StringVar(&sealStatusFlag, "status", string(risc.StatusPassed), "verdict: risky, passed or failed")
	snapshotSealCmd.Flags().Int64Var(&sealDateFlag, "date", 0, "issue time in Unix seconds (default now)")
	snapshotSealCmd.Flags().IntVar(&sealIndexFlag, "ix", 0, "key offset into the doubled secret")
	snapshotSealCmd.Flags().StringVar(&sealIVFlag, "iv", "", "16-byte IV as hex (default random)")

	snapshotCmd.AddCommand(snapshotDecryptCmd)
	snapshotCmd.AddCommand(snapshotValidateCmd)
	snapshotCmd.AddCommand(snapshotSealCmd)
	rootCmd.AddCommand(snapshotCmd)
}
