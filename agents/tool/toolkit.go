package tool

import "github.com/dshills/tradingagents-go/agents/model"

// Toolkit builds the per-category dispatchers against one data service.
//
// Each analyst category carries a fixed, ordered tool menu: the unified
// tool first, then online variants, then offline (cached) variants.
// The ordering is what the model sees and is part of the configuration
// surface, so it is fixed here rather than derived.
type Toolkit struct {
	// BaseURL is the data-service endpoint the HTTP tools fetch from.
	BaseURL string
}

// instrumentDateSchema is the common argument schema: every retrieval
// tool takes the instrument symbol and the as-of trade date.
func instrumentDateSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"symbol": map[string]interface{}{
				"type":        "string",
				"description": "Instrument ticker symbol",
			},
			"date": map[string]interface{}{
				"type":        "string",
				"description": "Trade date in YYYY-MM-DD format",
			},
		},
		"required": []string{"symbol", "date"},
	}
}

func (t *Toolkit) binding(name, description, path string) Binding {
	return Binding{
		Spec: model.ToolSpec{
			Name:        name,
			Description: description,
			Schema:      instrumentDateSchema(),
		},
		Impl: NewHTTPDataTool(name, description, t.BaseURL, path),
	}
}

// MarketDispatcher returns the market analyst's tool bundle.
func (t *Toolkit) MarketDispatcher() (*Dispatcher, error) {
	return NewDispatcher("market",
		t.binding("get_market_data_unified",
			"Fetch OHLCV price history and technical indicators from the best available source",
			"/market/unified"),
		t.binding("get_price_history_online",
			"Fetch live OHLCV price history", "/market/prices"),
		t.binding("get_indicators_report_online",
			"Fetch a live technical indicators report", "/market/indicators"),
		t.binding("get_price_history_cached",
			"Fetch cached OHLCV price history", "/market/prices/cached"),
		t.binding("get_indicators_report_cached",
			"Fetch a cached technical indicators report", "/market/indicators/cached"),
	)
}

// SocialDispatcher returns the social-sentiment analyst's tool bundle.
func (t *Toolkit) SocialDispatcher() (*Dispatcher, error) {
	return NewDispatcher("social",
		t.binding("get_stock_news_sentiment",
			"Fetch live social sentiment and discussion for the instrument", "/social/sentiment"),
		t.binding("get_reddit_stock_info",
			"Fetch cached reddit discussion about the instrument", "/social/reddit"),
	)
}

// NewsDispatcher returns the news analyst's tool bundle.
func (t *Toolkit) NewsDispatcher() (*Dispatcher, error) {
	return NewDispatcher("news",
		t.binding("get_global_news",
			"Fetch live global macroeconomic news", "/news/global"),
		t.binding("get_google_news",
			"Fetch live instrument news from news aggregators", "/news/search"),
		t.binding("get_finnhub_news",
			"Fetch cached company news", "/news/company/cached"),
		t.binding("get_reddit_news",
			"Fetch cached reddit world-news discussion", "/news/reddit/cached"),
	)
}

// FundamentalsDispatcher returns the fundamentals analyst's tool bundle.
func (t *Toolkit) FundamentalsDispatcher() (*Dispatcher, error) {
	return NewDispatcher("fundamentals",
		t.binding("get_fundamentals_unified",
			"Fetch a unified fundamentals report from the best available source",
			"/fundamentals/unified"),
		t.binding("get_insider_sentiment",
			"Fetch cached insider sentiment", "/fundamentals/insider/sentiment"),
		t.binding("get_insider_transactions",
			"Fetch cached insider transactions", "/fundamentals/insider/transactions"),
		t.binding("get_balance_sheet",
			"Fetch the cached balance sheet", "/fundamentals/balance-sheet"),
		t.binding("get_cashflow_statement",
			"Fetch the cached cashflow statement", "/fundamentals/cashflow"),
		t.binding("get_income_statement",
			"Fetch the cached income statement", "/fundamentals/income"),
	)
}

// Dispatchers returns all four category dispatchers keyed by category.
func (t *Toolkit) Dispatchers() (map[string]*Dispatcher, error) {
	out := make(map[string]*Dispatcher, 4)
	for _, build := range []func() (*Dispatcher, error){
		t.MarketDispatcher,
		t.SocialDispatcher,
		t.NewsDispatcher,
		t.FundamentalsDispatcher,
	} {
		d, err := build()
		if err != nil {
			return nil, err
		}
		out[d.Category()] = d
	}
	return out, nil
}
