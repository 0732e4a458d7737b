package normalizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Toomas633/Adlist-Parser/internal/models"
)

func result(src string, body string) models.FetchResult {
	return models.FetchResult{Source: models.NewSource(src), Body: []byte(body)}
}

func TestConsumeBlockMode(t *testing.T) {
	n := New(ModeBlock)
	n.Consume(result("https://one.example/list", "# header\n0.0.0.0 a.example\nb.example\n*.c.example\n||abp.block^\n@@||allow.example^\n"))
	n.Consume(result("https://two.example/list", "b.example\r\n||abp.block^\r\nd.example\r\n"))

	assert.Equal(t, []string{"a.example", "b.example", "c.example", "d.example"}, n.Domains())
	assert.Equal(t, []string{"||abp.block^", "@@||allow.example^"}, n.Rules())
	assert.Empty(t, n.Failed())

	stats := n.Stats()
	assert.Equal(t, 4, stats.Domains)
	assert.Equal(t, 2, stats.Rules)
}

func TestConsumeAllowMode(t *testing.T) {
	n := New(ModeAllow)
	n.Consume(result("allow.txt", "@@||allow.example^\n||plain.rule^\nsafe.example.com\n"))

	assert.Equal(t, []string{"safe.example.com"}, n.Domains())
	assert.Equal(t, []string{"||allow.example^", "||plain.rule^"}, n.Rules())
}

func TestConsumeFailedSource(t *testing.T) {
	n := New(ModeBlock)
	src := models.NewSource("https://down.example/list")
	n.Consume(models.FetchResult{Source: src, Err: errors.New("HTTP 503")})

	assert.Empty(t, n.Entries())
	assert.Equal(t, []models.Source{src}, n.Failed())
	assert.Equal(t, 1, n.Stats().Failed)
}

func TestConsumeOrderIndependent(t *testing.T) {
	a := result("https://a.example/list", "one.example\ntwo.example\n")
	b := result("https://b.example/list", "two.example\nthree.example\n")

	first := New(ModeBlock)
	first.Consume(a)
	first.Consume(b)

	second := New(ModeBlock)
	second.Consume(b)
	second.Consume(a)

	assert.ElementsMatch(t, first.Entries(), second.Entries())
}

func TestConsumeInvalidUTF8(t *testing.T) {
	n := New(ModeBlock)
	n.Consume(models.FetchResult{
		Source: models.NewSource("https://broken.example/list"),
		Body:   append([]byte("good.example\n\xff\xfe\n"), []byte("more.example\n")...),
	})

	assert.Equal(t, []string{"good.example", "more.example"}, n.Domains())
	assert.Empty(t, n.Failed())
}

func TestConsumeAllAppendsFetcherFailures(t *testing.T) {
	n := New(ModeBlock)
	failed := models.NewSource("missing.txt")
	n.ConsumeAll([]models.FetchResult{result("ok.txt", "a.example\n")}, []models.Source{failed})

	assert.Equal(t, []string{"a.example"}, n.Domains())
	assert.Equal(t, []models.Source{failed}, n.Failed())
}
