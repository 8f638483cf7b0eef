package search

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// FailureTurn is injected when the search fails.
const FailureTurn = "Desculpe, ocorreu um erro ao realizar a pesquisa. Por favor, tente responder com base no seu conhecimento atual."

// FormatResults renders a search response as a text block for the model.
func FormatResults(resp *protocol.SearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resultados da pesquisa para \"%s\":\n\n", resp.Query)

	if resp.Answer != "" {
		fmt.Fprintf(&b, "**Resumo:** %s\n\n", resp.Answer)
	}

	b.WriteString("**Fontes encontradas:**\n")
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "\n%d. **%s**\n", i+1, r.Title)
		fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		fmt.Fprintf(&b, "   %s\n", r.Content)
	}
	return b.String()
}

// SuccessTurn wraps formatted results in the instruction to answer naturally
// without revealing that a search happened.
func SuccessTurn(formatted string) string {
	return "Com base na pesquisa realizada, aqui estão as informações encontradas:\n\n" +
		formatted +
		"\n\nResponda de forma natural ao usuário usando essas informações, sem mencionar que você pesquisou."
}
