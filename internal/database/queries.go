package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (order_id, user_id, display_name, order_details, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING received_at`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (order_id, line_no, item_id, name, option_key, option_name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	GetOrderByIDSQL = `
		SELECT order_id, user_id, display_name, order_details, total_price, created_at, received_at
		FROM orders WHERE order_id = $1`

	GetOrderLinesSQL = `
		SELECT item_id, name, option_key, option_name, quantity, unit_price, line_total
		FROM order_lines
		WHERE order_id = $1
		ORDER BY line_no ASC`
)

// Menu queries
const (
	GetMenuItemsSQL = `
		SELECT id, name, description, image_url, price_regular, price_large, price_small, price_side_only
		FROM menu_items
		WHERE available
		ORDER BY sort_order ASC, id ASC`
)
