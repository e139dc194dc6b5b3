// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	SDKNotInstalledId Id = iota + 1
	PatchTargetMissingId
	PatchAlreadyAppliedId
	RuleMismatchId
	DownloadFailedId
	ChecksumMismatchId
	ExtractFailedId
	RestoreFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	sdkNotInstalledIssue = &Issue{
		id: SDKNotInstalledId,
		mdMsg: `
# HTMLayout SDK not found!

You must install the htmlayout sdk alongside this script in a folder called 'htmlayout'.

## Things you can try:
- Download and unpack the SDK:
~~~
$ get-htmlayout
~~~

- Or point the tool at an existing install:
~~~
$ patch-htmlayout --root /path/to/htmlayout
~~~`,
		extLinks: []HttpLink{"http://www.terrainformatica.com/htmlayout/"},
	}

	patchTargetMissingIssue = &Issue{
		id: PatchTargetMissingId,
		mdMsg: `
# Headers to patch are missing!

The include directory exists but some of the headers the patch needs are not there.
Nothing was modified.

## Things you can try:
- Re-download the SDK, the install may be incomplete:
~~~
$ get-htmlayout
~~~

- Check that --root points at the SDK folder, not its include directory`,
	}

	patchAlreadyAppliedIssue = &Issue{
		id: PatchAlreadyAppliedId,
		mdMsg: `
# Patch has already been applied!

A backup file ending in '.original' exists next to a header, so the headers were patched before.
Nothing was modified.

## Things you can try:
- Check the current state:
~~~
$ patch-htmlayout status
~~~

- Restore the original headers, then patch again:
~~~
$ patch-htmlayout restore
$ patch-htmlayout
~~~`,
	}

	ruleMismatchIssue = &Issue{
		id: RuleMismatchId,
		mdMsg: `
# Header does not look as expected!

A declaration the patch rewrites was not found in the header. The SDK may be a different
version than the one the patch was written for. Nothing was modified.

## Things you can try:
- Preview what would change:
~~~
$ patch-htmlayout diff
~~~

- Re-download the SDK to get pristine headers:
~~~
$ get-htmlayout
~~~`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Failed to download the SDK!

The archive could not be retrieved. Any previously downloaded archive was left in place.

## Things you can try:
- Check your network connection and proxy settings
- Check that the download URL is still valid
- Use a mirror:
~~~
$ get-htmlayout --url https://mirror.example/HTMLayoutSDK.zip
~~~`,
		extLinks: []HttpLink{"http://www.terrainformatica.com/htmlayout/"},
	}

	checksumMismatchIssue = &Issue{
		id: ChecksumMismatchId,
		mdMsg: `
# Downloaded archive failed verification!

The SHA-256 of the download does not match the expected checksum. The file was discarded.

## Things you can try:
- Retry, the transfer may have been corrupted
- Check that the configured checksum belongs to this SDK release
- Drop the check once you trust the source:
~~~
$ get-htmlayout --checksum ""
~~~`,
	}

	extractFailedIssue = &Issue{
		id: ExtractFailedId,
		mdMsg: `
# Failed to extract the SDK archive!

## Things you can try:
- Delete the downloaded archive and retry, it may be truncated
- Make sure there is enough free disk space
- Check that the archive is a valid zip file`,
	}

	restoreFailedIssue = &Issue{
		id: RestoreFailedId,
		mdMsg: `
# Some headers could not be restored!

The headers listed above still have their backups in place. The others were restored.

## Things you can try:
- Fix the reported problem and run the restore again, it is safe to repeat:
~~~
$ patch-htmlayout restore
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be parsed or does not match the schema.

## Things you can try:
- Check the file for CUE syntax errors
- Show the effective configuration:
~~~
$ get-htmlayout config show
~~~

- Example configuration:
~~~cue
install_root: "./htmlayout"
download: {
	url:     "http://www.terrainformatica.com/htmlayout/HTMLayoutSDK.zip"
	archive: "./HTMLayoutSDK.zip"
}
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to modify the SDK files.

## Things you can try:
- Check file/directory permissions of the htmlayout folder
- Run the tool from a directory you own`,
	}

	issues = map[Id]*Issue{
		sdkNotInstalledIssue.Id():     sdkNotInstalledIssue,
		patchTargetMissingIssue.Id():  patchTargetMissingIssue,
		patchAlreadyAppliedIssue.Id(): patchAlreadyAppliedIssue,
		ruleMismatchIssue.Id():        ruleMismatchIssue,
		downloadFailedIssue.Id():      downloadFailedIssue,
		checksumMismatchIssue.Id():    checksumMismatchIssue,
		extractFailedIssue.Id():       extractFailedIssue,
		restoreFailedIssue.Id():       restoreFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
