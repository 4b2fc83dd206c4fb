package magiclink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linksIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkauth_links_issued_total",
		Help: "Magic links successfully minted and handed to delivery.",
	})

	redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkauth_redemptions_total",
		Help: "Redemption attempts by result.",
	}, []string{"result"})
)
