package stream

// fallbackPool is the static headline set used while the upstream connection
// is down.
var fallbackPool = []string{
	"Federal Reserve signals potential rate pause in upcoming Q3 meeting.",
	"Major tech conglomerate announces sovereign-grade blockchain infrastructure.",
	"European Union finalized digital asset framework for cross-border settlements.",
	"Global energy transition leads to massive surge in ESG-linked digital tokens.",
	"SEC Chair discusses new custody requirements for institutional crypto holders.",
	"Asian markets see 15% increase in stablecoin liquidity for trade finance.",
	"New quantum-resistant encryption standard proposed for national digital currencies.",
	"Retail sentiment hit 2-year high following deflationary network upgrade.",
	"Whale accumulation patterns suggest consolidation at $60k support levels.",
	"Decentralized identity protocol reaches 10 million active monthly users.",
}
