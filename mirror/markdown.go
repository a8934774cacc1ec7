// CLAUDE:SUMMARY Optional markdown rendition of the mirrored page.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// writeMarkdown converts the rewritten markup to markdown and writes it as
// index.md next to index.html. Purely additive: failures are logged by the
// caller and never affect the HTML output.
func (m *Mirror) writeMarkdown(htmlSrc string) error {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	md, err := conv.ConvertString(htmlSrc, converter.WithDomain(m.cfg.TargetURL))
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return fmt.Errorf("conversion produced no content")
	}

	path := filepath.Join(m.cfg.OutputDir, "index.md")
	if err := os.WriteFile(path, []byte(md+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	m.logger.Info("mirror: markdown rendition written", "path", path)
	return nil
}
