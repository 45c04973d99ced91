package main

import (
	"fmt"
	"runtime"
	"strings"

	cli "github.com/urfave/cli/v3"

	"mpdom/common"
	"mpdom/misc"
	"mpdom/render"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "styling engine for restricted HTML/XHTML documents",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{renderCommand(), dumpConfigCommand()},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:         "render",
		Usage:        "Parses markup document(s), applies style sheets and writes resulting visual tree",
		OnUsageError: usageErrorHandler,
		Action:       render.Run,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "stylesheet", Aliases: []string{"s"},
				Usage: "apply user style sheet from `FILE` before document own sheets (may be repeated)"},
			&cli.StringFlag{Name: "wrap",
				Usage: "initial text splitting `MODE` (supported modes: " + strings.Join(common.WrapModeNames(), ", ") + ")"},
			&cli.StringSliceFlag{Name: "entity", Aliases: []string{"e"},
				Usage: "define additional character entity as `NAME=U+XXXX` (may be repeated)"},
			&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
			&cli.StringFlag{Name: "force-zip-cp",
				Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
		},
		ArgsUsage: "SOURCE [DESTINATION]",
		CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to document(s) to process, following formats are supported:
        path to a file: "[path_to_file]file.html"
        path to a directory: "[path_to_directory]directory" - recursively process all documents under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular document: "[path_to_archive]archive.zip[path_in_archive]/file.xhtml"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all documents under archive path

	Files with .html, .htm, .xhtml and .xht extensions are considered documents.
	Style sheets and images referenced by documents are looked up relative to
	the document, inside of archive for archived documents.

DESTINATION:
    always a path, output file name(s) and extensions will be derived from other parameters
    if absent - current working directory
`, cli.CommandHelpTemplate),
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "dumpconfig",
		Usage: "Dumps either default or actual configuration (YAML)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		OnUsageError: usageErrorHandler,
		Action:       outputConfiguration,
		ArgsUsage:    "DESTINATION",
		CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
	}
}
