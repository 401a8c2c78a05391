package database

// Catalog queries
const (
	GetProductByIDSQL = `
		SELECT id, name, category, price, available
		FROM products WHERE id = $1`

	GetProductsByIDsSQL = `
		SELECT id, name, category, price, available
		FROM products WHERE id = ANY($1)`
)

// Composition queries
const (
	InsertCompositionSQL = `
		INSERT INTO compositions (name, base_type, user_id, price_override)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	InsertCompositionComponentSQL = `
		INSERT INTO composition_components (composition_id, product_id, position)
		VALUES ($1, $2, $3)`

	GetCompositionByIDSQL = `
		SELECT id, name, base_type, user_id, price_override
		FROM compositions WHERE id = $1`

	GetCompositionComponentsSQL = `
		SELECT p.id, p.name, p.category, p.price, p.available
		FROM composition_components cc
		JOIN products p ON p.id = cc.product_id
		WHERE cc.composition_id = $1
		ORDER BY cc.position ASC`
)

// Cart queries
const (
	GetCartByUserSQL = `
		SELECT id, user_id, total
		FROM carts WHERE user_id = $1`

	InsertCartSQL = `
		INSERT INTO carts (user_id, total)
		VALUES ($1, 0.00)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, total`

	GetCartLinesSQL = `
		SELECT id, product_id, composition_id, quantity, unit_price, subtotal
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY id ASC`

	InsertCartLineSQL = `
		INSERT INTO cart_lines (cart_id, product_id, composition_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	UpdateCartLineQuantitySQL = `
		UPDATE cart_lines SET quantity = $1, subtotal = $2
		WHERE id = $3 AND cart_id = $4`

	DeleteCartLineSQL = `
		DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`

	UpdateCartTotalSQL = `
		UPDATE carts SET total = $1 WHERE id = $2`

	EmptyCartLinesSQL = `
		DELETE FROM cart_lines WHERE cart_id = $1`
)

// Card queries
const (
	GetCardByIDSQL = `
		SELECT id, user_id, masked_number
		FROM cards WHERE id = $1`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (user_id, status, total, note, delivery_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (order_id, product_id, composition_id, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	InsertPaymentSQL = `
		INSERT INTO payments (order_id, card_id, amount, authorization_code, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	GetOrderByIDSQL = `
		SELECT id, user_id, status, total, note, delivery_address, created_at, delivered_at
		FROM orders WHERE id = $1`

	GetOrderLinesSQL = `
		SELECT id, product_id, composition_id, quantity, subtotal
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC`

	GetPaymentByOrderSQL = `
		SELECT id, order_id, card_id, amount, authorization_code, status, created_at
		FROM payments WHERE order_id = $1`

	GetOrdersByUserSQL = `
		SELECT id, user_id, status, total, note, delivery_address, created_at, delivered_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	GetOrdersByStatusSQL = `
		SELECT id, user_id, status, total, note, delivery_address, created_at, delivered_at
		FROM orders
		WHERE status = $1
		ORDER BY created_at DESC`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`

	UpdateOrderDeliveredSQL = `
		UPDATE orders SET status = $1, delivered_at = NOW() WHERE id = $2 AND status = $3`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC`
)
