// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package catalog is the authoring boundary: it loads engagement item
definitions from YAML, upserts them into the store, and moves items
through their lifecycle (draft, published, closed).

	items:
	  - id: poll-1
	    title: Team lunch
	    variant: poll
	    status: published
	    poll:
	      question: Where should we go?
	      options:
	        - {id: A, label: Tacos}
	        - {id: B, label: Ramen}
*/
package catalog
