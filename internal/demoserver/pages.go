package demoserver

// PageVersion is one version of a page. $PARTNER in HTML is replaced with
// the configured partner base when served.
type PageVersion struct {
	HTML        string
	ContentType string
	Headers     map[string]string
}

// PageDefinition holds all versions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getResourcesPage(),
		getToolsPage(),
		getContactPage(),
		getWriteForUsPage(),
	}
}

const nav = `<nav>
        <a href="/">Home</a> |
        <a href="/resources">Resources</a> |
        <a href="/tools">Tools</a> |
        <a href="/contact">Contact</a> |
        <a href="/write-for-us">Write for us</a>
    </nav>`

// ===== HOME PAGE =====
func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Home page linking every other page",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Growth Notes - Home</title></head>
<body>
    <h1>Growth Notes</h1>
    ` + nav + `
    <p>Weekly notes on content marketing and SEO.</p>
    <a href="https://twitter.com/growthnotes">Follow us on Twitter</a>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Growth Notes - Home</title></head>
<body>
    <h1>Growth Notes</h1>
    ` + nav + `
    <p>Weekly notes on content marketing and SEO.</p>
    <p>Questions? <a href="mailto:hello@growthnotes.test">hello@growthnotes.test</a></p>
    <a href="https://twitter.com/growthnotes">Twitter</a>
    <a href="https://www.linkedin.com/company/growthnotes">LinkedIn</a>
</body>
</html>`,
			},
		},
	}
}

// ===== RESOURCES PAGE =====
func getResourcesPage() PageDefinition {
	return PageDefinition{
		Path:        "/resources",
		Description: "Curated resource list with dead outbound links",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Marketing Resources</title></head>
<body>
    <h1>Helpful Marketing Resources</h1>
    ` + nav + `
    <ul>
        <li><a href="$PARTNER/partner/content-calendar">Content calendar template</a></li>
        <li><a href="$PARTNER/partner/gone-seo-guide">Complete SEO guide</a></li>
        <li><a href="$PARTNER/partner/gone-keyword-research">Keyword research checklist</a></li>
        <li><a href="$PARTNER/partner/email-benchmarks">Email benchmarks</a></li>
    </ul>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Marketing Resources</title></head>
<body>
    <h1>Helpful Marketing Resources</h1>
    ` + nav + `
    <ul>
        <li><a href="$PARTNER/partner/content-calendar">Content calendar template</a></li>
        <li><a href="$PARTNER/partner/seo-guide-2025">Complete SEO guide</a></li>
        <li><a href="$PARTNER/partner/gone-keyword-research">Keyword research checklist</a></li>
        <li><a href="$PARTNER/partner/email-benchmarks">Email benchmarks</a></li>
    </ul>
</body>
</html>`,
			},
			3: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Marketing Resources</title></head>
<body>
    <h1>Helpful Marketing Resources</h1>
    ` + nav + `
    <ul>
        <li><a href="$PARTNER/partner/content-calendar">Content calendar template</a></li>
        <li><a href="$PARTNER/partner/seo-guide-2025">Complete SEO guide</a></li>
        <li><a href="$PARTNER/partner/keyword-research">Keyword research checklist</a></li>
        <li><a href="$PARTNER/partner/email-benchmarks">Email benchmarks</a></li>
    </ul>
</body>
</html>`,
			},
		},
	}
}

// ===== TOOLS PAGE =====
func getToolsPage() PageDefinition {
	return PageDefinition{
		Path:        "/tools",
		Description: "Tool recommendations, one of them retired",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Tools We Recommend</title></head>
<body>
    <h1>Tools We Recommend</h1>
    ` + nav + `
    <ul>
        <li><a href="$PARTNER/partner/analytics-suite">Analytics suite</a></li>
        <li><a href="$PARTNER/partner/gone-outdated-tool">Backlink checker</a></li>
    </ul>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Tools We Recommend</title></head>
<body>
    <h1>Tools We Recommend</h1>
    ` + nav + `
    <ul>
        <li><a href="$PARTNER/partner/analytics-suite">Analytics suite</a></li>
        <li><a href="$PARTNER/partner/backlink-checker">Backlink checker</a></li>
    </ul>
</body>
</html>`,
			},
		},
	}
}

// ===== CONTACT PAGE =====
func getContactPage() PageDefinition {
	return PageDefinition{
		Path:        "/contact",
		Description: "Contact page with an editor address and a form",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Contact</title></head>
<body>
    <h1>Contact the editors</h1>
    ` + nav + `
    <p>Email <a href="mailto:editor@growthnotes.test?subject=Hello">editor@growthnotes.test</a></p>
    <form action="/contact" method="POST">
        <input type="email" name="from" placeholder="Your email">
        <textarea name="message"></textarea>
        <button type="submit">Send</button>
    </form>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Contact</title></head>
<body>
    <h1>Contact the editors</h1>
    ` + nav + `
    <p>We answer messages sent through the form below.</p>
    <form action="/contact" method="POST">
        <input type="email" name="from" placeholder="Your email">
        <textarea name="message"></textarea>
        <button type="submit">Send</button>
    </form>
</body>
</html>`,
			},
		},
	}
}

// ===== WRITE FOR US PAGE =====
func getWriteForUsPage() PageDefinition {
	return PageDefinition{
		Path:        "/write-for-us",
		Description: "Guest post guidelines",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Write for Us</title></head>
<body>
    <h1>Write for Us</h1>
    ` + nav + `
    <p>We accept guest posts on SEO, content and email marketing.</p>
    <p>Pitch <a href="mailto:guests@growthnotes.test">guests@growthnotes.test</a> with two topic ideas.</p>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Write for Us</title></head>
<body>
    <h1>Write for Us</h1>
    ` + nav + `
    <p>We are not accepting guest posts right now.</p>
</body>
</html>`,
			},
		},
	}
}
