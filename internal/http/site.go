package http

import (
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/model"
)

type siteQuery struct {
	Locale string `query:"locale" validate:"omitempty,bcp47_language_tag"`
}

func siteHandler(cfg config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		var q siteQuery
		if err := c.Bind(&q); err != nil {
			return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "bad request"})
		}
		if err := c.Validate(&q); err != nil {
			return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid locale"})
		}

		raw := q.Locale
		if raw == "" {
			raw = cfg.Site.DefaultLocale
		}
		locale, ok := model.ParseLocale(raw)
		if !ok {
			return c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "unsupported locale"})
		}

		return c.JSON(http.StatusOK, model.SiteInfo{
			Domain:         cfg.Site.DomainName,
			Locale:         locale,
			Price:          cfg.Site.Price,
			AskingPrice:    FormatPrice(cfg.Site.Price, cfg.Site.Currency, locale),
			Currency:       cfg.Site.Currency,
			PaymentOptions: cfg.Site.PaymentOptions,
			ContactEmail:   cfg.Site.ContactEmail,
			CompanyName:    cfg.Site.CompanyName,
			SiteURL:        cfg.Site.SiteURL,
			ChallengeKey:   cfg.Challenge.SiteKey,
			Locales:        model.SupportedLocales,
		})
	}
}

// FormatPrice renders the asking price as a whole number with locale grouping:
// "de" groups with '.', everything else with ','. EUR gets '€', any other
// currency '$'. Only the leading digits of raw are used; raw without digits is
// returned unformatted.
func FormatPrice(raw, currency string, locale model.Locale) string {
	symbol := "$"
	if strings.EqualFold(strings.TrimSpace(currency), "EUR") {
		symbol = "€"
	}

	digits := leadingInt(raw)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return symbol + strings.TrimSpace(raw)
	}

	tag := language.AmericanEnglish
	if locale.IsGerman() {
		tag = language.German
	}

	return symbol + message.NewPrinter(tag).Sprintf("%d", n)
}

func leadingInt(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return ""
	}
	return s[:end]
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func sitemapHandler(site config.SiteConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		base := "https://" + site.DomainName
		now := time.Now().UTC().Format(time.RFC3339)

		sm := sitemap{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
		for _, l := range model.SupportedLocales {
			sm.URLs = append(sm.URLs, sitemapURL{
				Loc:        base + "/" + l.String(),
				LastMod:    now,
				ChangeFreq: "weekly",
				Priority:   1,
			})
		}

		return c.XML(http.StatusOK, sm)
	}
}
