package mcpserver

// BlockContract describes the page content blocks an agent may place on a
// page and the fields each one carries.
const BlockContract = `# Taproom Block Contract

A page is an ordered list of blocks. Every block has a ` + "`" + `sectionKey` + "`" + ` (stable id
within the page), a ` + "`" + `contentType` + "`" + ` and a JSON ` + "`" + `content` + "`" + ` object whose shape
depends on the content type. All fields are strings and all are optional
unless marked required.

## Content types

| contentType | fields |
|---|---|
| ` + "`" + `hero` + "`" + ` | ` + "`" + `title` + "`" + ` (required), ` + "`" + `subtitle` + "`" + `, ` + "`" + `imageUrl` + "`" + ` |
| ` + "`" + `heading` + "`" + ` | ` + "`" + `heading` + "`" + ` (required), ` + "`" + `headingLevel` + "`" + ` h1..h6 (default h2), ` + "`" + `alignment` + "`" + ` |
| ` + "`" + `text` + "`" + ` | ` + "`" + `text` + "`" + ` (required, Markdown), ` + "`" + `alignment` + "`" + ` |
| ` + "`" + `image` + "`" + ` | ` + "`" + `imageUrl` + "`" + `, ` + "`" + `title` + "`" + ` (caption), ` + "`" + `alignment` + "`" + ` (default center) |
| ` + "`" + `card` + "`" + ` | ` + "`" + `cardTitle` + "`" + `, ` + "`" + `cardDescription` + "`" + `, ` + "`" + `cardImage` + "`" + `, ` + "`" + `style` + "`" + ` |
| ` + "`" + `button` + "`" + ` | ` + "`" + `buttonText` + "`" + `, ` + "`" + `buttonUrl` + "`" + `, ` + "`" + `style` + "`" + `, ` + "`" + `alignment` + "`" + ` |
| ` + "`" + `divider` + "`" + ` | ` + "`" + `style` + "`" + ` |

- ` + "`" + `alignment` + "`" + `: left, center, right.
- ` + "`" + `style` + "`" + ` (card, button): default, primary, secondary, accent.
- ` + "`" + `style` + "`" + ` (divider): default, thick, dashed, dotted.
- Image fields take an uploaded path (` + "`" + `/uploads/<file>` + "`" + `) or an absolute URL.
  Upload images with the ` + "`" + `upload_image` + "`" + ` tool first.
- ` + "`" + `buttonUrl` + "`" + ` is a site path (` + "`" + `/menu` + "`" + `), an http(s) URL, ` + "`" + `mailto:` + "`" + ` or ` + "`" + `tel:` + "`" + `.
  External URLs open in a new tab.

## Workflow

1. ` + "`" + `draft_open` + "`" + ` loads the current blocks of a page into a draft.
2. ` + "`" + `draft_add_block` + "`" + `, ` + "`" + `draft_set_field` + "`" + `, ` + "`" + `draft_move_block` + "`" + ` and
   ` + "`" + `draft_remove_block` + "`" + ` change the draft only. Nothing is visible on the site yet.
3. ` + "`" + `draft_show` + "`" + ` lists the draft, ` + "`" + `render_page` + "`" + ` previews the saved page.
4. ` + "`" + `draft_save` + "`" + ` replaces the whole page with the draft in one step. If it
   fails the draft keeps your edits; fix the problem and save again.

Block types not listed above are kept as they are but cannot be edited here.
`
