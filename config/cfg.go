package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"mpdom/common"
	"mpdom/diag"
	"mpdom/visual"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	FontConfig struct {
		Family    string `yaml:"family" validate:"required"`
		Size      int    `yaml:"size" validate:"min=4,max=256"`
		Bold      bool   `yaml:"bold,omitempty"`
		Italic    bool   `yaml:"italic,omitempty"`
		SmallCaps bool   `yaml:"small_caps,omitempty"`
	}

	StylesConfig struct {
		Process             bool            `yaml:"process"`
		StylesheetPath      string          `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		Media               []string        `yaml:"media" validate:"dive,required"`
		LinkFocusBackground bool            `yaml:"link_focus_background"`
		Wrap                common.WrapMode `yaml:"wrap" validate:"gte=0"`
	}

	// Catalog lists fonts available for rendering.
	Catalog []FontConfig

	LayoutConfig struct {
		Width int        `yaml:"width" validate:"min=16,max=8192"`
		Font  FontConfig `yaml:"font"`
		Fonts Catalog    `yaml:"fonts" validate:"dive"`
	}

	ImagesConfig struct {
		RasterizeSVG int `yaml:"rasterize_svg" validate:"gte=0,lte=4096"`
	}

	OutputsConfig struct {
		Tree  bool `yaml:"tree"`
		XHTML bool `yaml:"xhtml"`
		CSS   bool `yaml:"css"`
	}

	DocumentConfig struct {
		BaseURL               string        `yaml:"base_url" validate:"omitempty,url"`
		AbortOn               []string      `yaml:"abort_on"`
		OutputNameTemplate    string        `yaml:"output_name_template"`
		FileNameTransliterate bool          `yaml:"file_name_transliterate"`
		Styles                StylesConfig  `yaml:"styles"`
		Layout                LayoutConfig  `yaml:"layout"`
		Images                ImagesConfig  `yaml:"images"`
		Outputs               OutputsConfig `yaml:"outputs"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// Font converts configured font to engine representation.
func (f FontConfig) Font() visual.Font {
	font := visual.Font{Family: f.Family, Size: f.Size, Caps: f.SmallCaps}
	if f.Bold {
		font.Weight = visual.FontWeightBold
	}
	if f.Italic {
		font.Style = visual.FontStyleItalic
	}
	return font
}

// Fonts implements visual.FontCatalog.
func (c Catalog) Fonts() []visual.Font {
	out := make([]visual.Font, 0, len(c))
	for _, f := range c {
		out = append(out, f.Font())
	}
	return out
}

// AbortCodes returns set of diagnostic codes which stop processing.
func (d *DocumentConfig) AbortCodes() map[diag.Code]bool {
	out := make(map[diag.Code]bool, len(d.AbortOn))
	for _, name := range d.AbortOn {
		if code, err := diag.ParseCode(name); err == nil {
			out[code] = true
		}
	}
	return out
}

// checkConfig performs validations which cannot be expressed with tags.
func checkConfig(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	for i, name := range cfg.Document.AbortOn {
		if _, err := diag.ParseCode(name); err != nil {
			sl.ReportError(name, fmt.Sprintf("Document.AbortOn[%d]", i), "AbortOn", "diag_code", name)
		}
	}
	seen := make(map[visual.Font]bool, len(cfg.Document.Layout.Fonts))
	for i, f := range cfg.Document.Layout.Fonts {
		if seen[f.Font()] {
			sl.ReportError(f, fmt.Sprintf("Document.Layout.Fonts[%d]", i), "Fonts", "unique", f.Family)
		}
		seen[f.Font()] = true
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed, so yaml.Unmarshal cannot be used
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkConfig)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
