// Command kindling is the manuscript backend CLI: it imports planning files
// into the local database, exports Standard Manuscript Format documents, and
// manages project snapshots.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/internal/export"
	"github.com/smith-and-web/kindling-sub000/internal/importers"
	"github.com/smith-and-web/kindling-sub000/internal/logging"
	"github.com/smith-and-web/kindling-sub000/internal/paths"
	"github.com/smith-and-web/kindling-sub000/internal/settings"
	"github.com/smith-and-web/kindling-sub000/internal/snapshot"
	"github.com/smith-and-web/kindling-sub000/internal/store"
)

const version = "0.2.0"

// CLI defines the command tree.
var CLI struct {
	LogLevel string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogJSON  bool   `name:"log-json" help:"Emit logs as JSON"`
	DataDir  string `name:"data-dir" type:"path" help:"Override the application data directory"`

	Import   ImportCmd    `cmd:"" help:"Import a manuscript source into a new project"`
	Export   ExportGroup  `cmd:"" help:"Export a project"`
	Snapshot SnapGroup    `cmd:"" help:"Snapshot operations"`
	Project  ProjectGroup `cmd:"" help:"Project management"`
	Settings SettingsCmd  `cmd:"" help:"Show or update the author settings"`
	Version  VersionCmd   `cmd:"" help:"Print version information"`
}

// ExportGroup contains the two export targets.
type ExportGroup struct {
	Docx     DocxCmd     `cmd:"" help:"Export a Standard Manuscript Format .docx"`
	Markdown MarkdownCmd `cmd:"" help:"Export a folder tree of Markdown files"`
}

// SnapGroup contains the snapshot lifecycle commands.
type SnapGroup struct {
	Create  SnapCreateCmd  `cmd:"" help:"Capture a snapshot of a project"`
	Restore SnapRestoreCmd `cmd:"" help:"Restore a snapshot"`
	List    SnapListCmd    `cmd:"" help:"List a project's snapshots"`
	Preview SnapPreviewCmd `cmd:"" help:"Show a snapshot's metadata and project name"`
	Delete  SnapDeleteCmd  `cmd:"" help:"Delete a snapshot and its archive"`
}

// ProjectGroup contains project-level commands.
type ProjectGroup struct {
	List   ProjectListCmd   `cmd:"" help:"List all projects"`
	Delete ProjectDeleteCmd `cmd:"" help:"Delete a project and everything under it"`
}

// openStore resolves the database path and opens the store.
func openStore() (*store.Store, error) {
	path, err := paths.DatabasePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

func loadSettings() (settings.Settings, error) {
	path, err := paths.SettingsPath()
	if err != nil {
		return settings.Settings{}, err
	}
	return settings.Load(path)
}

// ImportCmd imports a source file or folder.
type ImportCmd struct {
	Path   string `arg:"" type:"path" help:"Source file or folder"`
	Format string `name:"format" enum:",plottr,ywriter,markdown,longform" default:"" help:"Source format (auto-detected when omitted)"`
}

func (c *ImportCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	project, err := importers.ImportFile(st, c.Path, c.Format)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %q as project %s\n", project.Name, project.ID)
	return nil
}

// DocxCmd renders the manuscript document.
type DocxCmd struct {
	ProjectID string `arg:"" help:"Project id"`
	Out       string `arg:"" type:"path" help:"Output .docx path"`

	ChapterID string `name:"chapter" help:"Limit the export to one chapter id"`
	SceneID   string `name:"scene" help:"Limit the export to one scene id"`

	BeatMarkers  bool   `name:"beat-markers" help:"Render scene titles and beat notes as headings"`
	Synopsis     bool   `name:"synopsis" help:"Include scene synopses"`
	Snapshot     bool   `name:"snapshot" help:"Capture an export-triggered snapshot first"`
	PageBreaks   bool   `name:"page-breaks" default:"true" negatable:"" help:"Page break between chapters"`
	TitlePage    bool   `name:"title-page" default:"true" negatable:"" help:"Include the title page"`
	HeadingStyle string `name:"heading-style" default:"number_only" enum:"number_only,number_and_title,title_only,number_arabic,number_arabic_and_title" help:"Chapter heading style"`
	SceneBreak   string `name:"scene-break" default:"hash" enum:"hash,asterisks,asterism,blank_line" help:"Scene separator style"`
	Font         string `name:"font" default:"courier" enum:"courier,times" help:"Manuscript font"`
	Spacing      string `name:"spacing" default:"double" enum:"single,one-and-half,double" help:"Line spacing"`
}

func (c *DocxCmd) Run() error {
	projectID, err := uuid.Parse(c.ProjectID)
	if err != nil {
		return fmt.Errorf("invalid project id %q", c.ProjectID)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	opts := export.DocxExportOptions{
		Scope:                     export.ScopeProject,
		IncludeBeatMarkers:        c.BeatMarkers,
		IncludeSynopsis:           c.Synopsis,
		CreateSnapshot:            c.Snapshot,
		PageBreaksBetweenChapters: c.PageBreaks,
		IncludeTitlePage:          c.TitlePage,
		ChapterHeadingStyle:       export.ChapterHeadingStyle(c.HeadingStyle),
		SceneBreakStyle:           export.SceneBreakStyle(c.SceneBreak),
		FontFamily:                export.FontCourierNew,
		LineSpacing:               export.SpacingDouble,
	}
	if c.Font == "times" {
		opts.FontFamily = export.FontTimesNewRoman
	}
	switch c.Spacing {
	case "single":
		opts.LineSpacing = export.SpacingSingle
	case "one-and-half":
		opts.LineSpacing = export.SpacingOneAndHalf
	}
	if c.ChapterID != "" {
		if opts.ChapterID, err = uuid.Parse(c.ChapterID); err != nil {
			return fmt.Errorf("invalid chapter id %q", c.ChapterID)
		}
		opts.Scope = export.ScopeChapter
	}
	if c.SceneID != "" {
		if opts.SceneID, err = uuid.Parse(c.SceneID); err != nil {
			return fmt.Errorf("invalid scene id %q", c.SceneID)
		}
		opts.Scope = export.ScopeScene
	}

	if err := export.NewDocxExporter(st, cfg).Export(projectID, c.Out, opts); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", c.Out)
	return nil
}

// MarkdownCmd writes the folder-tree export.
type MarkdownCmd struct {
	ProjectID string `arg:"" help:"Project id"`
	Out       string `arg:"" type:"path" help:"Output directory"`

	ChapterID string `name:"chapter" help:"Limit the export to one chapter id"`
	SceneID   string `name:"scene" help:"Limit the export to one scene id"`

	BeatMarkers    bool `name:"beat-markers" default:"true" negatable:"" help:"Render beat notes as headings"`
	Synopsis       bool `name:"synopsis" default:"true" negatable:"" help:"Include scene synopses"`
	DeleteExisting bool `name:"delete-existing" help:"Clear the target folder or file first"`
}

func (c *MarkdownCmd) Run() error {
	projectID, err := uuid.Parse(c.ProjectID)
	if err != nil {
		return fmt.Errorf("invalid project id %q", c.ProjectID)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := export.MarkdownExportOptions{
		Scope:              export.ScopeProject,
		IncludeBeatMarkers: c.BeatMarkers,
		IncludeSynopsis:    c.Synopsis,
		DeleteExisting:     c.DeleteExisting,
	}
	if c.ChapterID != "" {
		if opts.ChapterID, err = uuid.Parse(c.ChapterID); err != nil {
			return fmt.Errorf("invalid chapter id %q", c.ChapterID)
		}
		opts.Scope = export.ScopeChapter
	}
	if c.SceneID != "" {
		if opts.SceneID, err = uuid.Parse(c.SceneID); err != nil {
			return fmt.Errorf("invalid scene id %q", c.SceneID)
		}
		opts.Scope = export.ScopeScene
	}

	if err := export.NewMarkdownExporter(st).Export(projectID, c.Out, opts); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", c.Out)
	return nil
}

// SnapCreateCmd captures a manual snapshot.
type SnapCreateCmd struct {
	ProjectID   string `arg:"" help:"Project id"`
	Name        string `name:"name" default:"Manual snapshot" help:"Snapshot name"`
	Description string `name:"description" help:"Optional description"`
}

func (c *SnapCreateCmd) Run() error {
	projectID, err := uuid.Parse(c.ProjectID)
	if err != nil {
		return fmt.Errorf("invalid project id %q", c.ProjectID)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := snapshot.New(st).Capture(projectID, c.Name, c.Description, model.TriggerManual)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot %s (%d chapters, %d scenes, %d words)\n",
		meta.ID, meta.ChapterCount, meta.SceneCount, meta.WordCount)
	return nil
}

// SnapRestoreCmd restores a snapshot in place or as a new project.
type SnapRestoreCmd struct {
	SnapshotID string `arg:"" help:"Snapshot id"`
	AsNew      bool   `name:"as-new" help:"Restore into a new project instead of replacing"`
	Name       string `name:"name" help:"Name for the new project (with --as-new)"`
}

func (c *SnapRestoreCmd) Run() error {
	snapshotID, err := uuid.Parse(c.SnapshotID)
	if err != nil {
		return fmt.Errorf("invalid snapshot id %q", c.SnapshotID)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	mode := snapshot.RestoreReplace
	if c.AsNew {
		mode = snapshot.RestoreCreateNew
	}
	projectID, err := snapshot.New(st).Restore(snapshotID, mode, c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Restored into project %s\n", projectID)
	return nil
}

// SnapListCmd lists a project's snapshots.
type SnapListCmd struct {
	ProjectID string `arg:"" help:"Project id"`
}

func (c *SnapListCmd) Run() error {
	projectID, err := uuid.Parse(c.ProjectID)
	if err != nil {
		return fmt.Errorf("invalid project id %q", c.ProjectID)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	metas, err := snapshot.New(st).List(projectID)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("No snapshots.")
		return nil
	}
	for _, m := range metas {
		fmt.Printf("%s  %s  %-7s %q  %d words\n",
			m.ID, m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Trigger, m.Name, m.WordCount)
	}
	return nil
}

// SnapPreviewCmd shows a snapshot without restoring it.
type SnapPreviewCmd struct {
	SnapshotID string `arg:"" help:"Snapshot id"`
}

func (c *SnapPreviewCmd) Run() error {
	snapshotID, err := uuid.Parse(c.SnapshotID)
	if err != nil {
		return fmt.Errorf("invalid snapshot id %q", c.SnapshotID)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, projectName, err := snapshot.New(st).Preview(snapshotID)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot %s of %q\n", meta.ID, projectName)
	fmt.Printf("  created:  %s (%s)\n", meta.CreatedAt.Local().Format("2006-01-02 15:04:05"), meta.Trigger)
	fmt.Printf("  contents: %d chapters, %d scenes, %d beats, %d words\n",
		meta.ChapterCount, meta.SceneCount, meta.BeatCount, meta.WordCount)
	fmt.Printf("  archive:  %s (%d bytes)\n", meta.FilePath, meta.CompressedSize)
	return nil
}

// SnapDeleteCmd removes a snapshot.
type SnapDeleteCmd struct {
	SnapshotID string `arg:"" help:"Snapshot id"`
}

func (c *SnapDeleteCmd) Run() error {
	snapshotID, err := uuid.Parse(c.SnapshotID)
	if err != nil {
		return fmt.Errorf("invalid snapshot id %q", c.SnapshotID)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := snapshot.New(st).Delete(snapshotID); err != nil {
		return err
	}
	fmt.Println("Snapshot deleted.")
	return nil
}

// ProjectListCmd lists every project.
type ProjectListCmd struct{}

func (c *ProjectListCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	projects, err := st.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%s  %-10s %q\n", p.ID, p.SourceType, p.Name)
	}
	return nil
}

// ProjectDeleteCmd deletes a project and its children.
type ProjectDeleteCmd struct {
	ProjectID string `arg:"" help:"Project id"`
}

func (c *ProjectDeleteCmd) Run() error {
	projectID, err := uuid.Parse(c.ProjectID)
	if err != nil {
		return fmt.Errorf("invalid project id %q", c.ProjectID)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteProject(projectID); err != nil {
		return err
	}
	fmt.Println("Project deleted.")
	return nil
}

// SettingsCmd shows or updates the author settings used on title pages.
type SettingsCmd struct {
	Author   string `name:"author" help:"Set the legal author name"`
	Address1 string `name:"address1" help:"Set contact address line 1"`
	Address2 string `name:"address2" help:"Set contact address line 2"`
	Phone    string `name:"phone" help:"Set contact phone"`
	Email    string `name:"email" help:"Set contact email"`
}

func (c *SettingsCmd) Run() error {
	path, err := paths.SettingsPath()
	if err != nil {
		return err
	}
	cfg, err := settings.Load(path)
	if err != nil {
		return err
	}

	changed := false
	for _, f := range []struct {
		value string
		dst   *string
	}{
		{c.Author, &cfg.AuthorName},
		{c.Address1, &cfg.ContactAddressLine1},
		{c.Address2, &cfg.ContactAddressLine2},
		{c.Phone, &cfg.ContactPhone},
		{c.Email, &cfg.ContactEmail},
	} {
		if f.value != "" {
			*f.dst = f.value
			changed = true
		}
	}
	if changed {
		if err := settings.Save(path, cfg); err != nil {
			return err
		}
	}

	fmt.Printf("author:   %s\n", cfg.AuthorName)
	fmt.Printf("address:  %s\n", strings.TrimSpace(cfg.ContactAddressLine1+" "+cfg.ContactAddressLine2))
	fmt.Printf("phone:    %s\n", cfg.ContactPhone)
	fmt.Printf("email:    %s\n", cfg.ContactEmail)
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("kindling %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("kindling"),
		kong.Description("Kindling - local manuscript backend"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), format)
	if CLI.DataDir != "" {
		os.Setenv(paths.EnvDataDir, CLI.DataDir)
	}

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
