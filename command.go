package dbsession

import "database/sql"

// command is one prepared statement tracked by a Session until it is
// released at transaction end or session close.
type command struct {
	stmt     *sql.Stmt
	text     string
	released bool
}

func (c *command) release() error {
	if c.released {
		return nil
	}
	c.released = true
	return c.stmt.Close()
}

// releaseAll releases every command and returns the errors it met.
func releaseAll(cmds []*command) []error {
	var errs []error
	for _, c := range cmds {
		if err := c.release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
