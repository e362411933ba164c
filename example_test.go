package contextplus_test

import (
	"context"
	"fmt"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/internal/logging"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/resource"
)

func Example() {
	ctx := context.Background()

	pageType := &contextplus.Type{
		Name: "Page",
		Transitions: domain.Transitions{
			"publish": {From: []string{"draft", "private"}, To: "public"},
		},
	}
	siteType := &contextplus.Type{
		Name: "Site",
		Resources: []resource.Factory{
			resource.Declare("home", func(owner domain.Node) domain.Node {
				return newPage(pageType, owner, "", "draft")
			}),
		},
	}

	site := contextplus.NewSite(siteType, "site", contextplus.WithLogger(logging.NewNop()))
	home, err := site.Item(ctx, "home")
	if err != nil {
		fmt.Println(err)
		return
	}
	p := home.(*page)
	fmt.Println(p.Title())

	if err := p.PerformAction(ctx, "publish"); err != nil {
		fmt.Println(err)
		return
	}
	state, _ := p.State(ctx)
	fmt.Println(state)

	fmt.Println(p.PerformAction(ctx, "publish"))
	// Output:
	// Page: home
	// public
	// can not publish on an instance of Page: home in the state public
}
