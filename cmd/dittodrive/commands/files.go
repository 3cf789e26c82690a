package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/internal/bytesize"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
)

var filesOutput string

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect user files",
}

var filesLsCmd = &cobra.Command{
	Use:   "ls <username> [path]",
	Short: "List a folder of a user",
	Long: `List the entries of a folder in a user's namespace, or the root when no
path is given.

Examples:
  dittodrive files ls alice
  dittodrive files ls alice /photos/2024 -o json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFilesLs,
}

func init() {
	filesLsCmd.Flags().StringVarP(&filesOutput, "output", "o", "table", "Output format (table|json|yaml)")
	filesCmd.AddCommand(filesLsCmd)
}

// fileRow is the listed view of a namespace entry.
type fileRow struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Path     string    `json:"path" yaml:"path"`
	Kind     string    `json:"kind" yaml:"kind"`
	Size     int64     `json:"size,omitempty" yaml:"size,omitempty"`
	Refs     int       `json:"ref_count,omitempty" yaml:"ref_count,omitempty"`
	Hash     string    `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	Modified time.Time `json:"updated_at" yaml:"updated_at"`
}

// fileList renders namespace entries as a table.
type fileList []fileRow

func newFileList(entries []*models.FileEntry) fileList {
	l := make(fileList, 0, len(entries))
	for _, f := range entries {
		l = append(l, fileRow{
			ID:       f.ID,
			Name:     f.Name,
			Path:     f.LogicalPath,
			Kind:     string(f.Kind),
			Size:     f.Size(),
			Refs:     f.References(),
			Hash:     f.Hash(),
			Modified: f.UpdatedAt,
		})
	}
	return l
}

func (l fileList) Headers() []string {
	return []string{"Name", "Kind", "Size", "Refs", "Modified", "ID"}
}

func (l fileList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, f := range l {
		size, refs := "-", "-"
		if f.Kind == string(models.KindFile) {
			size = bytesize.Format(f.Size)
			refs = fmt.Sprintf("%d", f.Refs)
		}
		rows = append(rows, []string{
			f.Name, f.Kind, size, refs, f.Modified.Local().Format("2006-01-02 15:04"), f.ID,
		})
	}
	return rows
}

func runFilesLs(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(filesOutput)
	if err != nil {
		return err
	}

	folder := pathutil.Root
	if len(args) == 2 {
		folder = args[1]
	}

	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	user, err := st.GetUser(ctx, args[0])
	if err != nil {
		return fmt.Errorf("user %q: %w", args[0], err)
	}

	svc := drive.New(st, cfg.DriveConfig(), nil)
	entries, err := svc.Namespace().ListOwner(ctx, cliActor, user.ID, folder)
	if err != nil {
		return err
	}
	return printer.Print(newFileList(entries))
}
