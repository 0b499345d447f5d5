// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"

	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/coerce"
	"github.com/argres/argres/pkg/cueutil"
	"github.com/argres/argres/pkg/resolve"
	"github.com/argres/argres/pkg/specfile"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	// DeclarationNotFoundID is a declaration file that cannot be read.
	DeclarationNotFoundID ID = iota + 1
	// DeclarationInvalidID is a declaration file that fails schema validation.
	DeclarationInvalidID
	// UnknownConverterID is a `type` naming no registered converter.
	UnknownConverterID
	// InvalidSpecID is a spec set with empty, duplicate or reserved ids.
	InvalidSpecID
	// InvalidArgumentsID is a resolution run that failed in throw mode.
	InvalidArgumentsID
	// ConversionFailedID is a converter that rejected a value.
	ConversionFailedID
	// ConfigLoadFailedID is an unreadable or invalid config.cue.
	ConfigLoadFailedID
)

type (
	// ID identifies an issue in the catalog.
	ID int

	// MarkdownMsg is issue guidance in Markdown.
	MarkdownMsg string

	// HTTPLink is a documentation URL.
	HTTPLink string

	// Issue is a known failure together with guidance on fixing it.
	Issue struct {
		id       ID
		mdMsg    MarkdownMsg
		docLinks []HTTPLink
	}
)

var (
	render = glamour.Render

	declarationNotFoundIssue = &Issue{
		id: DeclarationNotFoundID,
		mdMsg: `
# Declaration file not found

argres could not read the file passed with ` + "`-f`" + `.

## Things you can try
- Check the path and the file permissions
- Use one of the supported extensions: ` + "`.cue`, `.yaml`, `.yml`, `.toml`, `.json`",
	}

	declarationInvalidIssue = &Issue{
		id: DeclarationInvalidID,
		mdMsg: `
# Invalid declaration file

The file does not match the declaration schema. The error above names the
offending field, for example ` + "`args[1].required`" + `.

## A minimal declaration
~~~yaml
args:
  - id: port
    env: PORT
    default: 8080
    type: int
options:
  throw: true
~~~

## Things you can try
- Run ` + "`argres validate -f FILE`" + ` after each change
- Policy flags (` + "`required`, `nullable`, `warn`, ...`" + `) must be booleans`,
	}

	unknownConverterIssue = &Issue{
		id: UnknownConverterID,
		mdMsg: `
# Unknown converter

A ` + "`type`" + ` field names a converter that is not registered.

## Built-in converters
` + "`string`, `int`, `float`, `bool`, `json`, `duration`, `url`, `regexp`",
	}

	invalidSpecIssue = &Issue{
		id: InvalidSpecID,
		mdMsg: `
# Invalid argument declarations

Every argument needs a non-empty, unique ` + "`id`" + `. Ids must also differ from the
output keys argres adds itself: the positional key (` + "`_`" + `), the rest key
(` + "`--`" + `) and, when errors are included, the errors key (` + "`_errors`" + `).

## Things you can try
- Rename the argument, or move the synthetic key with ` + "`options.positional_key`",
	}

	invalidArgumentsIssue = &Issue{
		id: InvalidArgumentsID,
		mdMsg: `
# Invalid arguments

One or more arguments are missing or hold a value outside their enum.

## Things you can try
- Pass the value on the command line: ` + "`argres resolve -f FILE -- --mode prod`" + `
- Set the environment variable named by ` + "`env`" + `
- Mark the argument ` + "`nullable`" + ` if it may stay unset`,
	}

	conversionFailedIssue = &Issue{
		id: ConversionFailedID,
		mdMsg: `
# Conversion failed

A converter rejected the value it was given. Native coercion runs first, so a
converter sees numbers, booleans and null rather than their spellings.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedID,
		mdMsg: `
# Failed to load configuration

## Things you can try
- Print the effective configuration: ` + "`argres config show`" + `
- Print a complete, valid config file: ` + "`argres config dump`" + `
- Check ` + "`ARGRES_*`" + ` environment variables, which override the file`,
	}

	issues = map[ID]*Issue{
		declarationNotFoundIssue.id: declarationNotFoundIssue,
		declarationInvalidIssue.id:  declarationInvalidIssue,
		unknownConverterIssue.id:    unknownConverterIssue,
		invalidSpecIssue.id:         invalidSpecIssue,
		invalidArgumentsIssue.id:    invalidArgumentsIssue,
		conversionFailedIssue.id:    conversionFailedIssue,
		configLoadFailedIssue.id:    configLoadFailedIssue,
	}
)

// ID returns the issue id.
func (i *Issue) ID() ID {
	return i.id
}

// MarkdownMsg returns the raw guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns the documentation links of the issue.
func (i *Issue) DocLinks() []HTTPLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guidance for a terminal with the named glamour style
// ("auto", "dark", "light", "notty").
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

// Get returns the issue with the given id, or nil.
func Get(id ID) *Issue {
	return issues[id]
}

// Values returns every issue in the catalog, ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// ForError returns the issue that explains err, or nil when none does.
// Configuration failures are recognized by their ActionableError operation.
func ForError(err error) *Issue {
	var ae *ActionableError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae) && (ae.Operation == "load configuration" || ae.Operation == "validate configuration"):
		return configLoadFailedIssue
	case errors.Is(err, coerce.ErrUnknownConverter):
		return unknownConverterIssue
	case errors.Is(err, resolve.ErrInvalidArgument):
		return invalidArgumentsIssue
	case errors.Is(err, coerce.ErrConversion), errors.Is(err, coerce.ErrNilInstance):
		return conversionFailedIssue
	case errors.Is(err, argspec.ErrInvalidSpec), errors.Is(err, argspec.ErrDuplicateID), errors.Is(err, resolve.ErrReservedID):
		return invalidSpecIssue
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, specfile.ErrUnsupportedFormat):
		return declarationNotFoundIssue
	case errors.Is(err, cueutil.ErrFileTooLarge), ae != nil && ae.Operation == "load declaration file":
		return declarationInvalidIssue
	default:
		return nil
	}
}
