package nogdb

import "github.com/phirasit/nogdb/store"

/*
ResultCursor is a restartable, pageable iterator over a pre-materialised
result set.
*/
type ResultCursor struct {
	items []store.Descriptor
	pos   int
}

func newResultCursor(items []store.Descriptor) *ResultCursor {
	return &ResultCursor{items: items}
}

/*
Next returns the next descriptor, or ok=false once exhausted.
*/
func (c *ResultCursor) Next() (store.Descriptor, bool) {
	if c.pos >= len(c.items) {
		return store.Descriptor{}, false
	}
	d := c.items[c.pos]
	c.pos++
	return d, true
}

/*
Skip advances the cursor past n items without materialising them.
*/
func (c *ResultCursor) Skip(n int) *ResultCursor {
	c.pos += n
	if c.pos > len(c.items) {
		c.pos = len(c.items)
	}
	return c
}

/*
Limit truncates the cursor to at most n further items.
*/
func (c *ResultCursor) Limit(n int) *ResultCursor {
	end := c.pos + n
	if end < len(c.items) {
		c.items = c.items[:end]
	}
	return c
}

/*
Reset rewinds the cursor back to its first item.
*/
func (c *ResultCursor) Reset() *ResultCursor {
	c.pos = 0
	return c
}

/*
Len reports how many items remain ahead of the cursor.
*/
func (c *ResultCursor) Len() int {
	return len(c.items) - c.pos
}
