package session

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-analyst/pkg/search"
	"github.com/teslashibe/go-analyst/pkg/timeline"
)

// holdSearch opens a search cycle whose query is still streaming:
// playback is flushed, the microphone is released and model audio is
// dropped until the cycle ends.
func (c *Controller) holdSearch() {
	if c.state.Search != nil {
		return
	}
	c.flushPlayback()
	c.stopRecording()
	c.searching.Store(true)
	c.update(func(s *State) {
		s.Search = &SearchCycle{Started: time.Now()}
	})
	c.setStatus("🔍 Preparando pesquisa...")
}

// releaseHeldSearch ends a held cycle that never produced a query.
func (c *Controller) releaseHeldSearch() {
	if s := c.state.Search; s != nil && s.Query == "" {
		c.abortSearch()
	}
}

// startSearch runs the search for query, opening the cycle if it is not
// already held.
func (c *Controller) startSearch(query string) {
	if s := c.state.Search; s != nil && s.Query != "" {
		return
	}
	c.holdSearch()

	c.searchSeq++
	seq := c.searchSeq
	started := c.state.Search.Started
	c.update(func(s *State) {
		s.Search = &SearchCycle{Query: query, Started: started}
	})

	c.playCue()
	c.log(fmt.Sprintf("🔍 PESQUISA ATIVADA: \"%s\"", query), timeline.Process)
	c.log("⏸️ Assistente BLOQUEADO durante pesquisa", timeline.Info)
	c.setStatus(fmt.Sprintf("🔍 Pesquisando: \"%s\"...", query))
	c.log("🌐 Iniciando busca no Tavily API...", timeline.Process)

	ctx := c.ctx
	go func() {
		out := c.interceptor.Run(ctx, query)
		c.dispatch(func() { c.finishSearch(seq, out) })
	}()
}

// finishSearch injects the outcome turn and always tears the cycle down.
func (c *Controller) finishSearch(seq uint64, out search.Outcome) {
	if seq != c.searchSeq {
		return
	}
	defer c.endSearch()

	if out.Err != nil {
		c.setError("❌ Erro na pesquisa: " + out.Err.Error())
		c.log("❌ ERRO na pesquisa: "+out.Err.Error(), timeline.Error)
		c.sendTurn(out.Turn)
		return
	}

	results := out.Response.Results
	c.log(fmt.Sprintf("✅ PESQUISA CONCLUÍDA - %d fontes encontradas:", len(results)), timeline.Success)
	for i, r := range results {
		c.log(fmt.Sprintf("📄 Fonte %d: %s", i+1, r.Title), timeline.Info)
		c.log("🔗 URL: "+r.URL, timeline.Info)
	}

	c.sendTurn(out.Turn)
	c.setStatus("✅ Pesquisa concluída - Assistente desbloqueado")
	c.log("🎤 Assistente DESBLOQUEADO - Pronto para conversar", timeline.Success)

	sources := make([]SearchResult, 0, len(results))
	for _, r := range results {
		sources = append(sources, SearchResult{URI: r.URL, Title: r.Title})
	}
	c.update(func(s *State) { s.SearchResults = sources })
}

func (c *Controller) endSearch() {
	c.searching.Store(false)
	c.update(func(s *State) { s.Search = nil })
	c.log("🔓 Sistema desbloqueado", timeline.Info)
}

// abortSearch drops an in-flight search without injecting a turn.
func (c *Controller) abortSearch() {
	c.searchSeq++
	if c.state.Search != nil {
		c.searching.Store(false)
		c.update(func(s *State) { s.Search = nil })
	}
}
