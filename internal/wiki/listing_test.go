package wiki

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<h2>Lists of items</h2>
<div class="div-col columns column-width">
  <ul>
    <li><a href="/w/Stick" title="Stick">Stick</a></li>
    <li><a href="/w/Ink_Sac" title="Ink Sac">Ink Sac</a> <a href="/w/Java_Edition">JE</a></li>
    <li><a href="/w/Bucket"><b>Bucket</b></a></li>
    <li><a href="/w/Bedrock_Edition">BE</a></li>
    <li><a href="/w/Spacer">   </a></li>
    <li><a>No href here</a></li>
  </ul>
</div>
<p><a href="/w/Outside">Outside any column</a></p>
<div class="div-col">
  <ul>
    <li><a href="/w/Stick" title="Stick">Stick</a></li>
    <li><a href="/w/Egg">Egg</a></li>
  </ul>
</div>
</body></html>`

func TestCandidatesExtractsColumnLinksInOrder(t *testing.T) {
	t.Parallel()

	got, err := Candidates([]byte(listingPage), "https://minecraft.wiki")
	require.NoError(t, err)

	want := []Candidate{
		{Name: "Stick", URL: "https://minecraft.wiki/w/Stick"},
		{Name: "Ink Sac", URL: "https://minecraft.wiki/w/Ink_Sac"},
		{Name: "Bucket", URL: "https://minecraft.wiki/w/Bucket"},
		{Name: "Stick", URL: "https://minecraft.wiki/w/Stick"},
		{Name: "Egg", URL: "https://minecraft.wiki/w/Egg"},
	}
	require.Equal(t, want, got)
}

func TestCandidatesKeepsDuplicates(t *testing.T) {
	t.Parallel()

	page := `<div class="div-col">
		<a href="/w/Stick">Stick</a>
		<a href="/w/Stick">Stick</a>
	</div>`

	got, err := Candidates([]byte(page), "https://minecraft.wiki")
	require.NoError(t, err)
	require.Len(t, got, 2, "duplicate listings must each yield a candidate")
	require.Equal(t, got[0], got[1])
}

func TestCandidatesSkipsEditionMarkers(t *testing.T) {
	t.Parallel()

	page := `<div class="div-col">
		<a href="/w/Java_Edition">JE</a>
		<a href="/w/Bedrock_Edition"> BE </a>
		<a href="/w/Jeans">Jeans</a>
	</div>`

	got, err := Candidates([]byte(page), "https://example.test")
	require.NoError(t, err)
	require.Equal(t, []Candidate{{Name: "Jeans", URL: "https://example.test/w/Jeans"}}, got)
}

func TestCandidatesEmptyWhenNoColumns(t *testing.T) {
	t.Parallel()

	got, err := Candidates([]byte(`<html><body><a href="/w/Stick">Stick</a></body></html>`), "https://minecraft.wiki")
	require.NoError(t, err)
	require.Empty(t, got)
}
